package cartdto

import (
	"github.com/angelmondragon/artcart-backend/internal/pricing"
	"github.com/angelmondragon/artcart-backend/pkg/money"
)

// AddItemRequest is the payload of POST /api/v1/cart/items.
type AddItemRequest struct {
	SKU      string            `json:"sku" validate:"required,max=64"`
	Quantity int               `json:"quantity" validate:"required,min=1,max=999"`
	Options  map[string]string `json:"options,omitempty" validate:"omitempty,max=10"`
}

// UpdateQuantityRequest is the payload of PATCH /api/v1/cart/items/{lineId}.
// A quantity of zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=999"`
}

// CartLine is one priced line. Money is rendered as fixed two-place strings.
type CartLine struct {
	ID                 string            `json:"id"`
	SKU                string            `json:"sku"`
	Name               string            `json:"name"`
	Image              string            `json:"image,omitempty"`
	Quantity           int               `json:"quantity"`
	Options            map[string]string `json:"options"`
	PriceBeforeOptions string            `json:"price_before_options"`
	OptionSurcharge    string            `json:"option_surcharge"`
	UnitPriceBeforeGST string            `json:"unit_price_before_gst"`
	GSTPercentage      string            `json:"gst_percentage"`
	UnitGST            string            `json:"unit_gst"`
	UnitTotal          string            `json:"unit_total"`
	LineTotalBeforeGST string            `json:"line_total_before_gst"`
	GSTAmount          string            `json:"gst_amount"`
	LineTotal          string            `json:"line_total"`
}

// SkippedLine reports a stored entry that could not be priced.
type SkippedLine struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// CartSummary is the API view of a cart.
type CartSummary struct {
	Lines          []CartLine    `json:"lines"`
	Skipped        []SkippedLine `json:"skipped,omitempty"`
	ItemCount      int           `json:"item_count"`
	Subtotal       string        `json:"subtotal"`
	GSTTotal       string        `json:"gst_total"`
	ShippingCharge string        `json:"shipping_charge"`
	GrandTotal     string        `json:"grand_total"`
	IsEmpty        bool          `json:"is_empty"`
}

// NewCartSummary maps a pricing summary.
func NewCartSummary(s pricing.Summary) CartSummary {
	out := CartSummary{
		Lines:          make([]CartLine, 0, len(s.Lines)),
		ItemCount:      s.ItemCount,
		Subtotal:       money.Format(s.Subtotal),
		GSTTotal:       money.Format(s.GSTTotal),
		ShippingCharge: money.Format(s.ShippingCharge),
		GrandTotal:     money.Format(s.GrandTotal),
		IsEmpty:        s.IsEmpty(),
	}
	for _, line := range s.Lines {
		options := map[string]string(line.Options)
		if options == nil {
			options = map[string]string{}
		}
		out.Lines = append(out.Lines, CartLine{
			ID:                 line.ID,
			SKU:                line.SKU,
			Name:               line.Name,
			Image:              line.Image,
			Quantity:           line.Quantity,
			Options:            options,
			PriceBeforeOptions: money.Format(line.PriceBeforeOptions),
			OptionSurcharge:    money.Format(line.Surcharge),
			UnitPriceBeforeGST: money.Format(line.UnitPriceBeforeGST),
			GSTPercentage:      money.Format(line.GSTPercentage),
			UnitGST:            money.Format(line.UnitGST),
			UnitTotal:          money.Format(line.UnitTotal),
			LineTotalBeforeGST: money.Format(line.LineTotalBeforeGST),
			GSTAmount:          money.Format(line.GSTAmount),
			LineTotal:          money.Format(line.LineTotal),
		})
	}
	for _, skipped := range s.Skipped {
		out.Skipped = append(out.Skipped, SkippedLine{ID: skipped.ID, Reason: skipped.Reason.String()})
	}
	return out
}
