package value

import (
	"math"
	"strconv"
	"strings"
)

// Codec converts values of a single kind to and from text.
type Codec interface {
	// Kind returns the kind this codec handles.
	Kind() Kind

	// Encode renders v as canonical text.
	Encode(v Value) string

	// Decode parses text. When text is not a valid encoding for the kind,
	// def is returned together with ok == false.
	Decode(text string, def Value) (v Value, ok bool)
}

var codecs = map[Kind]Codec{
	KindInt:    intCodec{},
	KindFloat:  floatCodec{},
	KindBool:   boolCodec{},
	KindString: stringCodec{},
}

// For returns the codec for kind k. Unknown kinds fall back to the string codec.
func For(k Kind) Codec {
	if c, ok := codecs[k]; ok {
		return c
	}
	return stringCodec{}
}

// Encode renders v using the codec for its kind.
func Encode(v Value) string {
	return For(v.kind).Encode(v)
}

// Decode parses text as the kind of def, returning def when text does not parse.
func Decode(text string, def Value) Value {
	v, _ := For(def.kind).Decode(text, def)
	return v
}

// Parses reports whether text is a valid encoding for kind k.
func Parses(k Kind, text string) bool {
	_, ok := For(k).Decode(text, Zero(k))
	return ok
}

type intCodec struct{}

func (intCodec) Kind() Kind { return KindInt }

func (intCodec) Encode(v Value) string {
	return strconv.FormatInt(v.i, 10)
}

func (intCodec) Decode(text string, def Value) (Value, bool) {
	n, ok := parseInt(text)
	if !ok {
		return def, false
	}
	return Int(n), true
}

// parseInt reads the longest decimal integer prefix of text after leading
// white space and ignores the rest, so "12abc" and "1.5" read as 12 and 1.
// Text without a leading integer, or one outside the int64 range, does not
// parse.
func parseInt(text string) (int64, bool) {
	s := strings.TrimLeft(text, " \t\r\n\v\f")
	n := signedDigits(s, 0)
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:n], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseFloat reads the longest decimal floating point prefix of text after
// leading white space, with an optional fraction and exponent.
func parseFloat(text string) (float64, bool) {
	s := strings.TrimLeft(text, " \t\r\n\v\f")

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intEnd := digits(s, i)
	end, fracDigits := intEnd, 0
	if end < len(s) && s[end] == '.' {
		fracEnd := digits(s, end+1)
		fracDigits = fracEnd - (end + 1)
		end = fracEnd
	}
	if intEnd == i && fracDigits == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		if exp := signedDigits(s, end+1); exp > end+1 {
			end = exp
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// signedDigits returns the end of an optionally signed digit run starting at
// i, or 0 when there are no digits.
func signedDigits(s string, i int) int {
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	end := digits(s, i)
	if end == i {
		return 0
	}
	return end
}

func digits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

type floatCodec struct{}

func (floatCodec) Kind() Kind { return KindFloat }

// Encode uses the shortest decimal form. Round-trip through text is
// best-effort for floats.
func (floatCodec) Encode(v Value) string {
	return strconv.FormatFloat(v.f, 'f', -1, 64)
}

func (floatCodec) Decode(text string, def Value) (Value, bool) {
	f, ok := parseFloat(text)
	if !ok {
		return def, false
	}
	return Float(f), true
}

// boolCodec stores booleans as the integers 1 and 0. Decoding reads the
// integer and compares it to 1.
type boolCodec struct{}

func (boolCodec) Kind() Kind { return KindBool }

func (boolCodec) Encode(v Value) string {
	if v.b {
		return "1"
	}
	return "0"
}

func (boolCodec) Decode(text string, def Value) (Value, bool) {
	var fallback int64
	if def.b {
		fallback = 1
	}
	n, ok := parseInt(text)
	if !ok {
		n = fallback
	}
	return Bool(n == 1), ok
}

type stringCodec struct{}

func (stringCodec) Kind() Kind { return KindString }

func (stringCodec) Encode(v Value) string { return v.s }

func (stringCodec) Decode(text string, _ Value) (Value, bool) {
	return String(text), true
}
