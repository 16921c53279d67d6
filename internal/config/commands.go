package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ListConfig holds configuration for the list command.
type ListConfig struct {
	Common
	Account  string
	Symbol   string
	Cursor   string
	PageSize int
}

// LoadList merges config file, environment variables, and flags into ListConfig.
func LoadList(cfgFile string, flags *pflag.FlagSet) (ListConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{"page-size": 10})
	if err != nil {
		return ListConfig{}, err
	}

	cfg := ListConfig{
		Common:   loadCommon(v),
		Account:  strings.TrimSpace(v.GetString("account")),
		Symbol:   strings.TrimSpace(v.GetString("symbol")),
		Cursor:   v.GetString("cursor"),
		PageSize: v.GetInt("page-size"),
	}
	if cfg.Account == "" {
		return ListConfig{}, fmt.Errorf("account is required")
	}
	return cfg, cfg.Validate()
}

// ExportConfig holds configuration for the export command.
type ExportConfig struct {
	Common
	Account string
	Symbol  string
	OutDir  string
	Quote   bool
}

// LoadExport merges config file, environment variables, and flags into ExportConfig.
func LoadExport(cfgFile string, flags *pflag.FlagSet) (ExportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out-dir": ".",
		"quote":   false,
	})
	if err != nil {
		return ExportConfig{}, err
	}

	cfg := ExportConfig{
		Common:  loadCommon(v),
		Account: strings.TrimSpace(v.GetString("account")),
		Symbol:  strings.TrimSpace(v.GetString("symbol")),
		OutDir:  v.GetString("out-dir"),
		Quote:   v.GetBool("quote"),
	}
	if cfg.Account == "" {
		return ExportConfig{}, fmt.Errorf("account is required")
	}
	return cfg, cfg.Validate()
}

// ServeConfig holds configuration for the HTTP API.
type ServeConfig struct {
	Common
	Listen       string
	CORSOrigins  []string
	PageSize     int
	Quote        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"listen":        ":8080",
		"page-size":     10,
		"quote":         false,
		"read-timeout":  10 * time.Second,
		"write-timeout": 30 * time.Second,
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Common:       loadCommon(v),
		Listen:       v.GetString("listen"),
		CORSOrigins:  getStringSlice(v, "cors-origins"),
		PageSize:     v.GetInt("page-size"),
		Quote:        v.GetBool("quote"),
		ReadTimeout:  v.GetDuration("read-timeout"),
		WriteTimeout: v.GetDuration("write-timeout"),
	}
	return cfg, cfg.Validate()
}

// SyncConfig holds configuration for the chain sync command.
type SyncConfig struct {
	Common
	RPCURL            string
	Account           string
	Tokens            []string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size":         uint64(2000),
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return SyncConfig{}, err
	}

	cfg := SyncConfig{
		Common:            loadCommon(v),
		RPCURL:            v.GetString("rpc"),
		Account:           strings.TrimSpace(v.GetString("account")),
		Tokens:            getStringSlice(v, "token"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
	}
	if cfg.RPCURL == "" {
		return SyncConfig{}, fmt.Errorf("rpc url is required")
	}
	if cfg.Account == "" {
		return SyncConfig{}, fmt.Errorf("account is required")
	}
	return cfg, cfg.Validate()
}

// ContactsConfig holds configuration for the contacts commands.
type ContactsConfig struct {
	Common
}

// LoadContacts merges config file, environment variables, and flags into
// ContactsConfig. The contacts table lives in Postgres, so a DSN is required.
func LoadContacts(cfgFile string, flags *pflag.FlagSet) (ContactsConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return ContactsConfig{}, err
	}

	cfg := ContactsConfig{Common: loadCommon(v)}
	if cfg.PGDSN == "" {
		return ContactsConfig{}, fmt.Errorf("pg-dsn is required for the contacts table")
	}
	return cfg, nil
}
