// Package version decides which ledger an account address belongs on.
//
// The decision itself lives behind a Provider, usually a remote service.
// A Resolver wraps the provider and converts every failure into a
// *ResolutionError so callers can branch on a single error type.
package version

import (
	"fmt"
	"strings"
)

// Version names a ledger backend.
type Version int

const (
	// Legacy is the ledger accounts are being migrated away from.
	Legacy Version = iota + 1
	// Current is the ledger accounts are being migrated onto.
	Current
)

// String returns the canonical name of the version.
func (v Version) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Current:
		return "current"
	default:
		return fmt.Sprintf("version(%d)", int(v))
	}
}

// Valid reports whether v is one of the known versions.
func (v Version) Valid() bool {
	return v == Legacy || v == Current
}

// SDKVersion returns the wire code the version service uses: "2" or "3".
func (v Version) SDKVersion() string {
	switch v {
	case Legacy:
		return "2"
	case Current:
		return "3"
	default:
		return ""
	}
}

// Parse accepts a canonical name or an SDK wire code.
func Parse(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "2":
		return Legacy, nil
	case "current", "3":
		return Current, nil
	default:
		return 0, fmt.Errorf("version: unknown version %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("version: cannot marshal %s", v)
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
