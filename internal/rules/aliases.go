// internal/rules/aliases.go
package rules

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Aliases maps field keys to display names used in messages. Owned by the
// validators it is passed to; safe for concurrent use.
type Aliases struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewAliases copies names into a new alias set.
func NewAliases(names map[string]string) *Aliases {
	a := &Aliases{names: make(map[string]string, len(names))}
	for k, v := range names {
		a.names[k] = v
	}
	return a
}

// Get returns the alias registered for field.
func (a *Aliases) Get(field string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	name, ok := a.names[field]
	return name, ok
}

// Set registers one alias.
func (a *Aliases) Set(field, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names[field] = name
}

// Merge adds or overwrites the given aliases.
func (a *Aliases) Merge(names map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range names {
		a.names[k] = v
	}
}

// Replace swaps the whole alias map.
func (a *Aliases) Replace(names map[string]string) {
	fresh := make(map[string]string, len(names))
	for k, v := range names {
		fresh[k] = v
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names = fresh
}

// Clear removes every alias.
func (a *Aliases) Clear() {
	a.Replace(nil)
}

// Len returns the number of aliases.
func (a *Aliases) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.names)
}

// Display resolves the name for a concrete key: its alias, then the alias
// of the schema pattern it was expanded from, then Humanize(key).
func (a *Aliases) Display(key, pattern string) string {
	if a != nil {
		if name, ok := a.Get(key); ok {
			return name
		}
		if pattern != key {
			if name, ok := a.Get(pattern); ok {
				return name
			}
		}
	}
	return Humanize(key)
}

var humanizer = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// Humanize turns a field key into a title-cased display name:
// "billing_address.zip-code" becomes "Billing Address Zip Code".
func Humanize(field string) string {
	words := strings.Fields(humanizer.Replace(field))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
