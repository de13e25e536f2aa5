// Package address identifies a setting inside an INI document.
//
// Scripts name settings with a single composite string of the form
// "key:section". The key comes first, the reverse of the document's own
// "[section] key=" order; existing defaults files were authored against this
// convention, so the split is on the first colon and the order is fixed.
package address

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SettingSeparator splits a composite setting name into key and section.
	SettingSeparator = ":"

	// cacheKeySeparator joins section and key in internal composite keys.
	cacheKeySeparator = "::"
)

// ErrInvalid is returned for setting names that do not split into a
// non-empty key and section.
var ErrInvalid = errors.New("invalid setting name")

// Address is a (section, key) pair.
type Address struct {
	Section string
	Key     string
}

// New returns the address for an already split section and key.
func New(section, key string) (Address, error) {
	a := Address{Section: section, Key: key}
	if !a.Valid() {
		return Address{}, fmt.Errorf("%w: section %q, key %q", ErrInvalid, section, key)
	}
	return a, nil
}

// Parse splits a composite "key:section" setting name on its first colon.
func Parse(settingName string) (Address, error) {
	key, section, found := strings.Cut(settingName, SettingSeparator)
	if !found {
		return Address{}, fmt.Errorf("%w: %q has no %q separator", ErrInvalid, settingName, SettingSeparator)
	}
	a := Address{Section: section, Key: key}
	if !a.Valid() {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalid, settingName)
	}
	return a, nil
}

// Valid reports whether both section and key are non-empty.
func (a Address) Valid() bool {
	return a.Section != "" && a.Key != ""
}

// SettingName returns the composite "key:section" form.
func (a Address) SettingName() string {
	return a.Key + SettingSeparator + a.Section
}

// CacheKey returns the internal "section::key" form.
func (a Address) CacheKey() string {
	return a.Section + cacheKeySeparator + a.Key
}

// String formats the address as "[section]key" for log output.
func (a Address) String() string {
	return "[" + a.Section + "]" + a.Key
}
