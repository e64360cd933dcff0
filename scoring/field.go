package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

type fieldKind uint8

const (
	kindAbsent fieldKind = iota
	kindText
	kindNumber
	kindBool
	kindOther
)

// Field is a registry value whose shape is not guaranteed: it may be
// missing, a string, a JSON number, a boolean or something else entirely.
// The scoring functions only ever read a Field through String, Truthy and
// Int, which never fail.
type Field struct {
	kind fieldKind
	raw  string
	b    bool
}

// Absent is the missing value.
func Absent() Field {
	return Field{}
}

// Text wraps a string value. An empty string is present but falsy.
func Text(s string) Field {
	return Field{kind: kindText, raw: s}
}

// Number wraps an integer value.
func Number(n int) Field {
	return Field{kind: kindNumber, raw: strconv.Itoa(n)}
}

// Decimal wraps a floating point value.
func Decimal(f float64) Field {
	return Field{kind: kindNumber, raw: formatFloat(f)}
}

// Bool wraps a boolean value.
func Bool(b bool) Field {
	return Field{kind: kindBool, b: b}
}

// FieldOf converts an arbitrary decoded value into a Field.
func FieldOf(v any) Field {
	switch t := v.(type) {
	case nil:
		return Absent()
	case Field:
		return t
	case *Field:
		if t == nil {
			return Absent()
		}

		return *t
	case string:
		return Text(t)
	case *string:
		if t == nil {
			return Absent()
		}

		return Text(*t)
	case json.Number:
		return Field{kind: kindNumber, raw: t.String()}
	case int:
		return Number(t)
	case int8:
		return Number(int(t))
	case int16:
		return Number(int(t))
	case int32:
		return Number(int(t))
	case int64:
		return Field{kind: kindNumber, raw: strconv.FormatInt(t, 10)}
	case uint:
		return Field{kind: kindNumber, raw: strconv.FormatUint(uint64(t), 10)}
	case uint8:
		return Number(int(t))
	case uint16:
		return Number(int(t))
	case uint32:
		return Field{kind: kindNumber, raw: strconv.FormatUint(uint64(t), 10)}
	case uint64:
		return Field{kind: kindNumber, raw: strconv.FormatUint(t, 10)}
	case float32:
		return Decimal(float64(t))
	case float64:
		return Decimal(t)
	case bool:
		return Bool(t)
	case fmt.Stringer:
		return Text(t.String())
	default:
		return Field{kind: kindOther, raw: fmt.Sprint(v)}
	}
}

func (f Field) IsAbsent() bool {
	return f.kind == kindAbsent
}

// IsNumber reports whether the value came in as a number rather than text.
func (f Field) IsNumber() bool {
	return f.kind == kindNumber
}

// String renders the value the way the registry-facing code compares it
// against lookup keys. The missing value renders as "None".
func (f Field) String() string {
	switch f.kind {
	case kindAbsent:
		return "None"
	case kindText, kindOther:
		return f.raw
	case kindNumber:
		if isIntegerLiteral(f.raw) {
			if n, err := strconv.ParseInt(f.raw, 10, 64); err == nil {
				return strconv.FormatInt(n, 10)
			}

			return f.raw
		}

		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return f.raw
		}

		return formatFloat(v)
	case kindBool:
		if f.b {
			return "True"
		}

		return "False"
	}

	return ""
}

// Truthy reports whether the value counts as set: absent values, empty
// strings, zero numbers and false are not.
func (f Field) Truthy() bool {
	switch f.kind {
	case kindText:
		return f.raw != ""
	case kindNumber:
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return f.raw != ""
		}

		return v != 0
	case kindBool:
		return f.b
	case kindOther:
		raw := strings.TrimSpace(f.raw)
		return raw != "" && raw != "{}" && raw != "[]" && raw != "map[]"
	}

	return false
}

// Int coerces the value to an integer. Strings are trimmed and must hold a
// base-10 integer, optionally with single underscores between digits;
// finite numbers are truncated toward zero; booleans are 0 or 1. Values
// beyond the int range saturate. Anything else reports false.
func (f Field) Int() (int, bool) {
	n, ok := f.bigInt()
	if !ok {
		return 0, false
	}

	return saturate(n), true
}

// bigInt is the unbounded form of Int.
func (f Field) bigInt() (*big.Int, bool) {
	switch f.kind {
	case kindText:
		digits, ok := integerDigits(strings.TrimSpace(f.raw))
		if !ok {
			return nil, false
		}

		return new(big.Int).SetString(digits, 10)
	case kindNumber:
		if isIntegerLiteral(f.raw) {
			return new(big.Int).SetString(f.raw, 10)
		}

		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, false
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}

		n, _ := big.NewFloat(v).Int(nil)

		return n, true
	case kindBool:
		if f.b {
			return big.NewInt(1), true
		}

		return big.NewInt(0), true
	}

	return nil, false
}

func saturate(n *big.Int) int {
	switch {
	case n.IsInt64() && n.Int64() >= math.MinInt && n.Int64() <= math.MaxInt:
		return int(n.Int64())
	case n.Sign() < 0:
		return math.MinInt
	default:
		return math.MaxInt
	}
}

// integerDigits validates an optionally signed decimal literal whose digits
// may be grouped with single underscores, and returns it without them.
func integerDigits(s string) (string, bool) {
	body := strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	if len(body) < len(s)-1 || body == "" {
		return "", false
	}

	prevUnderscore := true

	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			prevUnderscore = false
		case r == '_' && !prevUnderscore:
			prevUnderscore = true
		default:
			return "", false
		}
	}

	if prevUnderscore {
		return "", false
	}

	return strings.ReplaceAll(s, "_", ""), true
}

// Or returns f when it is truthy and fallback otherwise.
func (f Field) Or(fallback Field) Field {
	if f.Truthy() {
		return f
	}

	return fallback
}

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = Absent()
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*f = Text(s)
	case bytes.Equal(data, []byte("true")):
		*f = Bool(true)
	case bytes.Equal(data, []byte("false")):
		*f = Bool(false)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}

		*f = Field{kind: kindNumber, raw: n.String()}
	default:
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return err
		}

		*f = Field{kind: kindOther, raw: compact.String()}
	}

	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case kindText:
		return json.Marshal(f.raw)
	case kindNumber:
		return []byte(f.raw), nil
	case kindBool:
		return json.Marshal(f.b)
	case kindOther:
		if json.Valid([]byte(f.raw)) {
			return []byte(f.raw), nil
		}

		return json.Marshal(f.raw)
	}

	return []byte("null"), nil
}

func isIntegerLiteral(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".eE")
}

// formatFloat mirrors the shortest round-trip representation used by the
// registry tooling: integral values keep a trailing ".0" and exponents only
// appear outside [1e-4, 1e16).
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
