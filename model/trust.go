// Package model defines the data structures exchanged with the trust catalog,
// including packages, package references, vulnerabilities and the batch envelopes.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Trust is the tri-state trust flag of a package. The zero value is TrustUnknown,
// which is distinct from a package known to be untrusted.
type Trust int

const (
	// TrustUnknown means the catalog did not report a trust status.
	TrustUnknown Trust = iota
	// Trusted means the catalog reported the package as trusted.
	Trusted
	// Untrusted means the catalog reported the package as not trusted.
	Untrusted
)

// TrustFromBool converts a known boolean flag into a Trust value
func TrustFromBool(b bool) Trust {
	if b {
		return Trusted
	}
	return Untrusted
}

// Known reports whether the catalog reported a trust status
func (t Trust) Known() bool { return t != TrustUnknown }

// IsZero lets the omitzero tag drop unknown values
func (t Trust) IsZero() bool { return t == TrustUnknown }

// String returns "unknown", "trusted" or "untrusted"
func (t Trust) String() string {
	switch t {
	case Trusted:
		return "trusted"
	case Untrusted:
		return "untrusted"
	default:
		return "unknown"
	}
}

// MarshalJSON writes true/false, or null when unknown
func (t Trust) MarshalJSON() ([]byte, error) {
	switch t {
	case Trusted:
		return []byte("true"), nil
	case Untrusted:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads true/false; null leaves the value unknown
func (t *Trust) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = TrustUnknown
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("trusted: %w", err)
	}
	*t = TrustFromBool(b)
	return nil
}

// MarshalYAML renders the flag the same way as JSON
func (t Trust) MarshalYAML() (interface{}, error) {
	if !t.Known() {
		return nil, nil
	}
	return t == Trusted, nil
}
