package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is a single answer in a Field Map, keyed by question identifier.
type Field struct {
	Key   string
	Value string
}

// FieldMap holds user-supplied answers keyed by question identifier.
//
// Keys are unique. Entry order is preserved because moderation reports the
// first offending field in the order the answers were entered. Values are
// untrusted user input.
type FieldMap []Field

// NewFieldMap builds a FieldMap from alternating key/value pairs.
// It panics on an odd number of arguments; it is intended for tests and
// static fixtures.
func NewFieldMap(pairs ...string) FieldMap {
	if len(pairs)%2 != 0 {
		panic("domain: NewFieldMap requires key/value pairs")
	}
	m := make(FieldMap, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m = m.With(pairs[i], pairs[i+1])
	}
	return m
}

// Get returns the value stored under key.
func (m FieldMap) Get(key string) (string, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// With returns a copy of m with key set to value. An existing key keeps its
// position; a new key is appended.
func (m FieldMap) With(key, value string) FieldMap {
	out := make(FieldMap, len(m), len(m)+1)
	copy(out, m)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// Keys returns the field keys in entry order.
func (m FieldMap) Keys() []string {
	keys := make([]string, len(m))
	for i, f := range m {
		keys[i] = f.Key
	}
	return keys
}

// Validate checks that every key is non-empty and unique.
func (m FieldMap) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for _, f := range m {
		if strings.TrimSpace(f.Key) == "" {
			return ErrEmptyFieldKey
		}
		if _, ok := seen[f.Key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateField, f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	return nil
}

// String renders the map as "key: value" pairs joined by ", ", in entry order.
func (m FieldMap) String() string {
	parts := make([]string, len(m))
	for i, f := range m {
		parts[i] = f.Key + ": " + f.Value
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the map as a JSON object, keeping entry order.
func (m FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string values, keeping the order in
// which keys appear in the document. Duplicate keys are rejected.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: field map must be a JSON object", ErrInvalidFormat)
	}

	out := FieldMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		key, _ := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%w: field %q must be a string", ErrInvalidFormat, key)
		}
		if _, exists := out.Get(key); exists {
			return fmt.Errorf("%w: %q", ErrDuplicateField, key)
		}
		out = append(out, Field{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	*m = out
	return nil
}
