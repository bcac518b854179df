package protocol

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// optional is implemented by opt.Value.
type optional interface {
	Interface() (any, bool)
}

// knowable is implemented by enum types.
type knowable interface {
	IsKnown() bool
}

const (
	iso8601Format = "2006-01-02T15:04:05Z"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	epochType    = reflect.TypeOf(EpochTime{})
	marshalerTyp = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// unwrap resolves opt.Value, pointers and interfaces. ok is false when there is
// nothing to serialize: unset optionals, nil pointers, unknown enums.
func unwrap(v reflect.Value) (reflect.Value, bool) {
	for {
		if !v.IsValid() {
			return v, false
		}
		if v.CanInterface() {
			if o, ok := v.Interface().(optional); ok {
				inner, set := o.Interface()
				if !set {
					return reflect.Value{}, false
				}
				v = reflect.ValueOf(inner)
				continue
			}
		}
		switch v.Kind() {
		case reflect.Pointer, reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
			continue
		}
		if v.CanInterface() {
			if k, ok := v.Interface().(knowable); ok && !k.IsKnown() {
				return reflect.Value{}, false
			}
		}
		return v, true
	}
}

// formatScalar renders a leaf value as a string. handled is false for lists, maps
// and structs other than timestamps.
func formatScalar(v reflect.Value, timeFormat string) (s string, handled bool, err error) {
	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time).UTC().Format(timeFormat), true, nil
	case epochType:
		return v.Interface().(EpochTime).UTC().Format(timeFormat), true, nil
	}
	if v.Type().Implements(marshalerTyp) {
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", true, err
		}
		return string(b), true, nil
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true, nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(v.Bytes()), true, nil
		}
	}
	return "", false, nil
}

// tagOptions is the comma-separated suffix of a struct tag.
type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, tagOptions(opts)
}

func (o tagOptions) Contains(opt string) bool {
	for s := string(o); s != ""; {
		var next string
		s, next, _ = strings.Cut(s, ",")
		if s == opt {
			return true
		}
		s = next
	}
	return false
}

// structOf dereferences in down to a struct value.
func structOf(in any) (reflect.Value, error) {
	v := reflect.ValueOf(in)
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Value{}, nil
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("protocol: input must be a struct, got %s", v.Type())
	}
	return v, nil
}
