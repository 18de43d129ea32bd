// Package validate turns loosely typed request values into the types the
// services store. It coerces, it does not enforce business rules: form posts
// carry every value as text and JSON clients send numbers either way.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"blossoms/internal/domain"
)

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrValidation, field, err)
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// Text returns v as a string; absent values become "".
func Text(field string, v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case json.Number:
		return x.String(), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", invalid(field, err)
	}
	return s, nil
}

// Int coerces numbers and numeric strings; absent or blank values become 0.
// Text is read as base 10, so "010" is 10, and whole decimals such as "12.0"
// are accepted.
func Int(field string, v any) (int, error) {
	if blank(v) {
		return 0, nil
	}
	switch x := v.(type) {
	case string:
		return parseInt(field, strings.TrimSpace(x))
	case json.Number:
		return parseInt(field, x.String())
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, invalid(field, err)
	}
	return n, nil
}

func parseInt(field, s string) (int, error) {
	if n, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid(field, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) ||
		f > math.MaxInt || f < math.MinInt {
		return 0, invalid(field, fmt.Errorf("%q is not a whole number", s))
	}
	return int(f), nil
}

// Float coerces numbers and numeric strings; absent or blank values become 0.
// Infinities and NaN are rejected: they cannot be stored and served as JSON.
func Float(field string, v any) (float64, error) {
	if blank(v) {
		return 0, nil
	}
	switch x := v.(type) {
	case string:
		v = strings.TrimSpace(x)
	case json.Number:
		v = x.String()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, invalid(field, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, invalid(field, fmt.Errorf("%v is not a finite number", f))
	}
	return f, nil
}

// Decimal parses monetary values without going through float64 when the
// client sent text.
func Decimal(field string, v any) (decimal.Decimal, error) {
	if blank(v) {
		return decimal.Zero, nil
	}
	switch x := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, invalid(field, err)
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero, invalid(field, err)
		}
		return d, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return decimal.Zero, invalid(field, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, invalid(field, fmt.Errorf("%v is not a finite number", f))
	}
	return decimal.NewFromFloat(f), nil
}

// Time parses timestamps as JSON clients and forms send them (RFC 3339 and
// the other layouts cast knows). Absent or blank values give nil.
func Time(field string, v any) (*time.Time, error) {
	if blank(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case string:
		v = strings.TrimSpace(x)
	case json.Number:
		sec, err := x.Int64()
		if err != nil {
			return nil, invalid(field, err)
		}
		v = sec
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, invalid(field, err)
	}
	t = t.UTC()
	return &t, nil
}

// List decodes a colors/tags value. A native sequence is taken as is; text is
// parsed as a JSON array of strings. Absent or blank values decode to an
// empty list; text that is not such an array is a validation error.
func List(field string, v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if e == nil {
				return nil, invalid(field, fmt.Errorf("null element"))
			}
			s, err := Text(field, e)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return []string{}, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(x), &out); err != nil {
			return nil, invalid(field, err)
		}
		if out == nil {
			out = []string{}
		}
		return out, nil
	}
	return nil, invalid(field, fmt.Errorf("unsupported type %T", v))
}

// Status validates a shipping status submitted for a manual update.
func Status(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= 64
}
