package pricing

import (
	"github.com/angelmondragon/artcart-backend/pkg/money"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LinePricing is the full price breakdown of one cart line.
type LinePricing struct {
	UnitPriceBeforeGST decimal.Decimal
	LineTotalBeforeGST decimal.Decimal
	GSTAmount          decimal.Decimal
	LineTotal          decimal.Decimal
	UnitGST            decimal.Decimal
	UnitTotal          decimal.Decimal
}

// PriceLine prices qty units of a product. Callers must pass qty >= 0; a zero
// quantity yields zero totals and zero per-unit figures.
func PriceLine(base, gstPercentage, surcharge decimal.Decimal, qty int) LinePricing {
	unit := base.Add(surcharge)
	quantity := decimal.NewFromInt(int64(qty))
	beforeGST := unit.Mul(quantity)
	gst := beforeGST.Mul(gstPercentage).Div(hundred)
	total := beforeGST.Add(gst)

	pricing := LinePricing{
		UnitPriceBeforeGST: unit,
		LineTotalBeforeGST: beforeGST,
		GSTAmount:          gst,
		LineTotal:          total,
		UnitGST:            decimal.Zero,
		UnitTotal:          decimal.Zero,
	}
	if qty > 0 {
		pricing.UnitGST = money.Round(gst.Div(quantity))
		pricing.UnitTotal = money.Round(total.Div(quantity))
	}
	return pricing
}
