package schema

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// LocalDateTimeLayout is the textual datetime form accepted by ToTime. A
// single space may stand in for the 'T' separator and a fractional second
// may follow the seconds.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// localDateTimeMinutes is LocalDateTimeLayout without seconds.
const localDateTimeMinutes = "2006-01-02T15:04"

// CoercionError reports a fetched value whose runtime type cannot be turned
// into the requested Go type.
type CoercionError struct {
	Target string
	Type   string
	Value  any
	Err    error
}

func (e *CoercionError) Error() string {
	v := e.Value
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	msg := fmt.Sprintf("schema: unsupported %s type: %s, value=%v", e.Target, e.Type, v)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

func coercionError(target string, v any, err error) error {
	return &CoercionError{Target: target, Type: fmt.Sprintf("%T", v), Value: v, Err: err}
}

// ToInt64 converts numeric values through their numeric value and text
// through strconv.ParseInt.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint:
		return uintToInt64(v, uint64(n))
	case uint64:
		return uintToInt64(v, n)
	case uint32:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseInt64(v, n)
	case []byte:
		return parseInt64(v, string(n))
	}
	return 0, coercionError("int64", v, nil)
}

func uintToInt64(v any, n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, coercionError("int64", v, strconv.ErrRange)
	}
	return int64(n), nil
}

// parseInt64 accepts integer text and decimal text such as the "2.0000"
// MySQL returns for DECIMAL results. Decimals are truncated toward zero.
func parseInt64(v any, s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	if strings.ContainsRune(s, '/') {
		return 0, coercionError("int64", v, err)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, coercionError("int64", v, err)
	}
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if !q.IsInt64() {
		return 0, coercionError("int64", v, strconv.ErrRange)
	}
	return q.Int64(), nil
}

// ToFloat64 converts numeric values and decimal text.
func ToFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		return parseFloat64(v, n)
	case []byte:
		return parseFloat64(v, string(n))
	}
	i, err := ToInt64(v)
	if err != nil {
		return 0, coercionError("float64", v, nil)
	}
	return float64(i), nil
}

func parseFloat64(v any, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, coercionError("float64", v, err)
	}
	return f, nil
}

// ToString renders any driver value as text.
func ToString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format("2006-01-02 15:04:05.999999999")
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

// ToBool treats non-zero numbers as true and parses text with strconv.ParseBool.
func ToBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return parseBool(v, b)
	case []byte:
		return parseBool(v, string(b))
	case float64:
		return b != 0, nil
	case float32:
		return b != 0, nil
	}
	n, err := ToInt64(v)
	if err != nil {
		return false, coercionError("bool", v, nil)
	}
	return n != 0, nil
}

func parseBool(v any, s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, coercionError("bool", v, err)
	}
	return b, nil
}

// ToTime accepts time.Time values and text in LocalDateTimeLayout, reading
// zone-less text in loc (UTC when loc is nil). RFC 3339 text is accepted too.
func ToTime(v any, loc *time.Location) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		return parseTime(v, t, loc)
	case []byte:
		return parseTime(v, string(t), loc)
	}
	return time.Time{}, coercionError("datetime", v, nil)
}

func parseTime(v any, s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.Replace(strings.TrimSpace(s), " ", "T", 1)
	t, err := time.ParseInLocation(LocalDateTimeLayout, s, loc)
	if err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(localDateTimeMinutes, s, loc); err == nil {
		return t, nil
	}
	if t, rfcErr := time.Parse(time.RFC3339Nano, s); rfcErr == nil {
		return t, nil
	}
	return time.Time{}, coercionError("datetime", v, err)
}
