// Package value defines the typed values stored in INI settings and the
// codecs that convert them to and from their canonical text form.
//
// Values are always persisted as text. The typed interpretation happens only
// when a value is read back, and a read never fails: text that does not parse
// as the requested kind yields the caller's default instead.
package value

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which of the supported setting types a Value holds.
type Kind uint8

const (
	// KindInt is a signed integer setting.
	KindInt Kind = iota
	// KindFloat is a floating point setting.
	KindFloat
	// KindBool is a boolean setting, persisted as "1" or "0".
	KindBool
	// KindString is a free-form text setting.
	KindString
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{KindInt, KindFloat, KindBool, KindString}

// String returns the kind name as used by the script bindings.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a tagged union over the supported setting types.
// The zero Value is Int(0).
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Zero returns the zero value of the given kind.
func Zero(k Kind) Value {
	return Value{kind: k}
}

// Kind reports which kind v holds.
func (v Value) Kind() Kind { return v.kind }

// AsInt returns the integer payload. It is 0 unless v is an Int.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload. It is 0 unless v is a Float.
func (v Value) AsFloat() float64 { return v.f }

// AsBool returns the boolean payload. It is false unless v is a Bool.
func (v Value) AsBool() bool { return v.b }

// AsString returns the string payload. It is "" unless v is a String.
func (v Value) AsString() string { return v.s }

// Equal reports whether v and o have the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String returns the canonical text encoding of v.
func (v Value) String() string {
	return Encode(v)
}

// ErrUnknownKind is returned by ParseKind for an unrecognized kind name.
var ErrUnknownKind = errors.New("unknown kind")

// ParseKind returns the kind named s, ignoring case.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
