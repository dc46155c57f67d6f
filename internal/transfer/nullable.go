package transfer

import (
	"bytes"
	"encoding/json"
)

// Nullable tells an absent JSON field apart from an explicit null.
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// IsNull reports an explicit JSON null.
func (n Nullable[T]) IsNull() bool {
	return n.Set && !n.Valid
}

// Ptr returns nil for null or absent values.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func Of[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}
