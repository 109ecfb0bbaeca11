// Package money converts loosely typed values into exact decimal amounts.
package money

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for displayed currency amounts.
const Scale = 2

// ToDecimal converts value into a decimal, returning def on any failure.
func ToDecimal(value any, def decimal.Decimal) decimal.Decimal {
	d, err := Coerce(value)
	if err != nil {
		return def
	}
	return d
}

// Coerce converts value into a decimal and reports why conversion failed.
func Coerce(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("nil amount")
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, fmt.Errorf("nil amount")
		}
		return *v, nil
	case string:
		return parseString(v)
	case json.Number:
		return parseString(v.String())
	case json.RawMessage:
		return coerceRaw(v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int8:
		return decimal.NewFromInt(int64(v)), nil
	case int16:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint8:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint16:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint32:
		return decimal.NewFromUint64(uint64(v)), nil
	case uint64:
		return decimal.NewFromUint64(v), nil
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", value)
	}
}

// Format renders d with two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// Round rounds d half away from zero to two fractional digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

func parseString(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", trimmed, err)
	}
	return d, nil
}

func coerceRaw(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return decimal.Zero, fmt.Errorf("nil amount")
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("decode amount: %w", err)
		}
		return parseString(s)
	}
	return parseString(trimmed)
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("non-finite amount %v", f)
	}
	return decimal.NewFromFloat(f), nil
}

// Zero is the zero amount, handy as a ToDecimal default.
var Zero = decimal.Zero
