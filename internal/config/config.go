package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Ledger source kinds.
const (
	SourceJSONL    = "jsonl"
	SourcePostgres = "postgres"
)

// Common holds settings shared by every command.
type Common struct {
	Source   string
	Ledger   string
	PGDSN    string
	Timezone string
	Decimals int32
	Contacts map[string]string
	LogLevel string
	// Automigrate applies pending schema migrations when the postgres store opens.
	Automigrate bool
}

// Validate checks the ledger source settings.
func (c Common) Validate() error {
	switch c.Source {
	case SourceJSONL:
		if c.Ledger == "" {
			return fmt.Errorf("ledger path is required for the jsonl source")
		}
	case SourcePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceJSONL, SourcePostgres)
	}
	return nil
}

// Location resolves the configured presentation time zone.
func (c Common) Location() (*time.Location, error) {
	return LoadLocation(c.Timezone)
}

// LoadLocation returns time.Local for "" or "Local" and the named zone otherwise.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// newViper merges config file, environment variables, and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LEDGERVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", SourceJSONL)
	v.SetDefault("ledger", "./data/events.jsonl")
	v.SetDefault("timezone", "Local")
	v.SetDefault("decimals", 9)
	v.SetDefault("log-level", "info")
	v.SetDefault("automigrate", true)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func loadCommon(v *viper.Viper) Common {
	return Common{
		Source:   strings.ToLower(strings.TrimSpace(v.GetString("source"))),
		Ledger:   v.GetString("ledger"),
		PGDSN:    v.GetString("pg-dsn"),
		Timezone: v.GetString("timezone"),
		Decimals: v.GetInt32("decimals"),
		Contacts: getStringMap(v, "contacts"),
		LogLevel: v.GetString("log-level"),

		Automigrate: v.GetBool("automigrate"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

// parseStringMap reads "key=value,key=value" as used by env vars.
func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	for _, pair := range splitAndClean(input) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
