// Package opt provides a presence-tracked optional value for request and result models.
//
// A Value[T] distinguishes "never set" from "set to the zero value". Unset values are
// omitted by every wire encoder in this module: JSON through the omitzero tag option
// (IsZero), XML through MarshalXML writing nothing, and the query encoder through
// Interface.
package opt

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// knowable is implemented by enum types. An unrecognized enum value is never
// considered set, so it cannot be re-serialized.
type knowable interface {
	IsKnown() bool
}

// Value holds an optional T.
type Value[T any] struct {
	v   T
	set bool
}

// Of returns a set Value holding v.
func Of[T any](v T) Value[T] {
	o := Value[T]{v: v, set: true}
	o.normalize()
	return o
}

// Unset returns an empty Value.
func Unset[T any]() Value[T] {
	return Value[T]{}
}

// FromPtr returns a set Value when p is non-nil.
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return Value[T]{}
	}
	return Of(*p)
}

func (o *Value[T]) normalize() {
	if k, ok := any(o.v).(knowable); ok && !k.IsKnown() {
		var zero T
		o.v = zero
		o.set = false
	}
}

// IsSet reports whether a value was assigned.
func (o Value[T]) IsSet() bool { return o.set }

// IsZero reports whether the value is unset. encoding/json uses it for omitzero.
func (o Value[T]) IsZero() bool { return !o.set }

// Get returns the value and whether it was set.
func (o Value[T]) Get() (T, bool) { return o.v, o.set }

// MustGet returns the value or panics when unset.
func (o Value[T]) MustGet() T {
	if !o.set {
		panic(fmt.Sprintf("opt: MustGet on unset %T", o.v))
	}
	return o.v
}

// OrElse returns the value, or d when unset.
func (o Value[T]) OrElse(d T) T {
	if !o.set {
		return d
	}
	return o.v
}

// Ptr returns a pointer to a copy of the value, or nil when unset.
func (o Value[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.v
	return &v
}

// Interface exposes the value untyped, for reflection-driven encoders.
func (o Value[T]) Interface() (any, bool) {
	if !o.set {
		return nil, false
	}
	return o.v, true
}

// String formats the value for logs; unset prints as "<unset>".
func (o Value[T]) String() string {
	if !o.set {
		return "<unset>"
	}
	return fmt.Sprint(o.v)
}

// MarshalJSON encodes the held value. Unset encodes as null, but struct fields
// should carry `json:",omitzero"` so unset fields are dropped entirely.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON decodes a present value. JSON null leaves the value unset.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Value[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.v = v
	o.set = true
	o.normalize()
	return nil
}

// MarshalXML writes the element only when the value is set.
func (o Value[T]) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if !o.set {
		return nil
	}
	return e.EncodeElement(o.v, start)
}

// UnmarshalXML decodes a present element.
func (o *Value[T]) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var v T
	if err := d.DecodeElement(&v, &start); err != nil {
		return err
	}
	o.v = v
	o.set = true
	o.normalize()
	return nil
}
