package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceLineScenario(t *testing.T) {
	t.Parallel()

	got := PriceLine(dec("100.00"), dec("18.0"), dec("20.00"), 2)

	checks := map[string]struct {
		got  decimal.Decimal
		want string
	}{
		"unit before gst": {got.UnitPriceBeforeGST, "120.00"},
		"line before gst": {got.LineTotalBeforeGST, "240.00"},
		"gst amount":      {got.GSTAmount, "43.20"},
		"line total":      {got.LineTotal, "283.20"},
		"unit gst":        {got.UnitGST, "21.60"},
		"unit total":      {got.UnitTotal, "141.60"},
	}
	for name, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Fatalf("%s: got %s want %s", name, c.got, c.want)
		}
	}
}

func TestPriceLineZeroQuantity(t *testing.T) {
	t.Parallel()

	got := PriceLine(dec("100.00"), dec("18"), dec("20"), 0)
	if !got.UnitTotal.Equal(decimal.Zero) || !got.UnitGST.Equal(decimal.Zero) {
		t.Fatalf("expected zero per-unit figures, got %s / %s", got.UnitTotal, got.UnitGST)
	}
	if got.UnitTotal.StringFixed(2) != "0.00" {
		t.Fatalf("expected 0.00, got %s", got.UnitTotal.StringFixed(2))
	}
	if !got.LineTotal.IsZero() || !got.GSTAmount.IsZero() {
		t.Fatalf("expected zero totals, got %s / %s", got.LineTotal, got.GSTAmount)
	}
	if !got.UnitPriceBeforeGST.Equal(dec("120")) {
		t.Fatalf("unit price should not depend on quantity, got %s", got.UnitPriceBeforeGST)
	}
}

func TestPriceLineNegativeSurchargeAndRounding(t *testing.T) {
	t.Parallel()

	got := PriceLine(dec("33.33"), dec("18"), dec("-3.33"), 3)
	if !got.UnitPriceBeforeGST.Equal(dec("30")) {
		t.Fatalf("unexpected unit price %s", got.UnitPriceBeforeGST)
	}
	if !got.GSTAmount.Equal(dec("16.2")) {
		t.Fatalf("unexpected gst %s", got.GSTAmount)
	}
	if !got.UnitTotal.Equal(dec("35.40")) {
		t.Fatalf("unexpected unit total %s", got.UnitTotal)
	}

	odd := PriceLine(dec("10"), dec("5"), decimal.Zero, 3)
	if !odd.UnitGST.Equal(dec("0.50")) || !odd.UnitTotal.Equal(dec("10.50")) {
		t.Fatalf("unexpected per-unit values %s / %s", odd.UnitGST, odd.UnitTotal)
	}
}

func TestPriceLineRepeatedAdditionHasNoDrift(t *testing.T) {
	t.Parallel()

	total := decimal.Zero
	for i := 0; i < 1000; i++ {
		total = total.Add(PriceLine(dec("0.10"), decimal.Zero, dec("0.20"), 1).LineTotal)
	}
	if !total.Equal(dec("300")) {
		t.Fatalf("expected exact 300, got %s", total)
	}
}
