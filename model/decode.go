package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MissingFieldError is returned when a required JSON field is absent or null
type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Type, e.Field)
}

// requireFields checks that every field key is present in the JSON object
// with a non-null value
func requireFields(data []byte, typ string, fields ...string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s: %w", typ, err)
	}
	for _, f := range fields {
		if v, ok := raw[f]; !ok || string(bytes.TrimSpace(v)) == "null" {
			return &MissingFieldError{Type: typ, Field: f}
		}
	}
	return nil
}
