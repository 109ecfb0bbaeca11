package money

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToDecimalValidStrings(t *testing.T) {
	t.Parallel()

	cases := []string{"0", "100.00", "-20.5", "18", "0.001", "  42.10  ", "1e3"}
	for _, raw := range cases {
		got := ToDecimal(raw, decimal.NewFromInt(-1))
		want := decimal.RequireFromString(strings.TrimSpace(raw))
		if !got.Equal(want) {
			t.Fatalf("ToDecimal(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestToDecimalFallsBackToDefault(t *testing.T) {
	t.Parallel()

	def := decimal.RequireFromString("7.5")
	inputs := []any{nil, "", "abc", "12,50", math.NaN(), math.Inf(1), []int{1}, map[string]any{}, true, (*decimal.Decimal)(nil), json.RawMessage("null")}
	for _, in := range inputs {
		if got := ToDecimal(in, def); !got.Equal(def) {
			t.Fatalf("ToDecimal(%#v) = %s, want default %s", in, got, def)
		}
	}
}

func TestToDecimalNumericKinds(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString("3.25")
	inputs := map[string]any{
		"int":        3,
		"int64":      int64(3),
		"uint8":      uint8(3),
		"float":      3.25,
		"json":       json.Number("3.25"),
		"decimal":    d,
		"decimalPtr": &d,
		"rawNumber":  json.RawMessage("3.25"),
		"rawString":  json.RawMessage(`"3.25"`),
	}
	for name, in := range inputs {
		got := ToDecimal(in, decimal.Zero)
		if got.IsZero() {
			t.Fatalf("%s: expected non-zero value", name)
		}
	}
	if got := ToDecimal(json.Number("3.25"), decimal.Zero); !got.Equal(d) {
		t.Fatalf("json.Number lost precision: %s", got)
	}
}

func TestCoerceReportsFailure(t *testing.T) {
	t.Parallel()

	if _, err := Coerce("twenty"); err == nil {
		t.Fatal("expected error for non numeric string")
	}
	if _, err := Coerce(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if v, err := Coerce("20.00"); err != nil || Format(v) != "20.00" {
		t.Fatalf("unexpected coerce result %s, %v", v, err)
	}
}

func TestRoundAndFormat(t *testing.T) {
	t.Parallel()

	if got := Format(Round(decimal.RequireFromString("141.605"))); got != "141.61" {
		t.Fatalf("expected half-up rounding, got %s", got)
	}
	if got := Format(decimal.Zero); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
}
