package checkout

import (
	"github.com/angelmondragon/artcart-backend/internal/pricing"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/artcart-backend/pkg/db/types"
	"github.com/angelmondragon/artcart-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// bill is the rounded, payable view of a cart summary. Every total is the sum
// of the rounded item rows so an invoice printed from it always adds up.
type bill struct {
	Items          []models.OrderItem
	Subtotal       decimal.Decimal
	GSTTotal       decimal.Decimal
	ShippingCharge decimal.Decimal
	GrandTotal     decimal.Decimal
	ItemCount      int
}

func (b bill) isEmpty() bool {
	return len(b.Items) == 0
}

// billableLines drops lines that carry no units.
func billableLines(lines []pricing.Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			out = append(out, line)
		}
	}
	return out
}

func newBill(summary pricing.Summary) bill {
	b := bill{
		Subtotal: decimal.Zero,
		GSTTotal: decimal.Zero,
	}
	for _, line := range billableLines(summary.Lines) {
		beforeGST := money.Round(line.LineTotalBeforeGST)
		gst := money.Round(line.GSTAmount)
		b.Items = append(b.Items, models.OrderItem{
			LineID:             line.ID,
			SKU:                line.SKU,
			Name:               line.Name,
			Image:              line.Image,
			Options:            dbtypes.StringMap(line.Options),
			Quantity:           line.Quantity,
			PriceBeforeOptions: money.Round(line.PriceBeforeOptions),
			UnitPriceBeforeGST: money.Round(line.UnitPriceBeforeGST),
			GSTPercentage:      line.GSTPercentage,
			GSTAmount:          gst,
			LineTotal:          beforeGST.Add(gst),
		})
		b.Subtotal = b.Subtotal.Add(beforeGST)
		b.GSTTotal = b.GSTTotal.Add(gst)
		b.ItemCount += line.Quantity
	}
	b.ShippingCharge = decimal.Zero
	if !b.isEmpty() {
		b.ShippingCharge = money.Round(summary.ShippingCharge)
	}
	b.GrandTotal = b.Subtotal.Add(b.GSTTotal).Add(b.ShippingCharge)
	return b
}
