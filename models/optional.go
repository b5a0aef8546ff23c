package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

var jsonNull = []byte("null")

// Optional carries a field of a partial update.
// Set is false when the key was absent from the payload; Null is true for an explicit null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return jsonNull, nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns nil for absent/null values.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// StringPtr normalizes an optional string: nil for absent, null or blank.
func StringPtr(o Optional[string]) *string {
	p := o.Ptr()
	return NormalizeString(p)
}

// NormalizeString maps blank strings to nil.
func NormalizeString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// MergeString applies a partial update to an optional string field.
func MergeString(current *string, update Optional[string]) *string {
	if !update.Set {
		return current
	}
	return StringPtr(update)
}
