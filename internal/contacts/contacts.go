package contacts

import (
	"strings"
	"sync"
)

// Lookup resolves an address to a human-readable contact name.
// Absence is not an error.
type Lookup interface {
	Name(address string) (string, bool)
}

// Book is an in-memory address book. Addresses are matched case-insensitively,
// which also makes it safe to feed from viper maps (viper lowercases keys).
type Book struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewBook builds a book from address -> name entries. Blank entries are skipped.
func NewBook(entries map[string]string) *Book {
	b := &Book{names: make(map[string]string, len(entries))}
	for address, name := range entries {
		b.Set(address, name)
	}
	return b
}

// Set adds or replaces a contact.
func (b *Book) Set(address, name string) {
	key := normalize(address)
	name = strings.TrimSpace(name)
	if key == "" || name == "" {
		return
	}
	b.mu.Lock()
	b.names[key] = name
	b.mu.Unlock()
}

func (b *Book) Name(address string) (string, bool) {
	if b == nil {
		return "", false
	}
	b.mu.RLock()
	name, ok := b.names[normalize(address)]
	b.mu.RUnlock()
	return name, ok
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.names)
}

// None is a Lookup that knows nobody.
type None struct{}

func (None) Name(string) (string, bool) { return "", false }

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
