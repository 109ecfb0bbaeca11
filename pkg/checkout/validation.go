package checkout

import (
	"fmt"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
)

const (
	ShortageMissing    = "missing"
	ShortageInactive   = "inactive"
	ShortageOutOfStock = "out_of_stock"
)

// AvailabilityInput describes one cart line and the catalog state of its product.
type AvailabilityInput struct {
	LineID    string
	SKU       string
	Name      string
	Requested int
	Found     bool
	Active    bool
	Available int
}

// Shortage explains why a SKU cannot be ordered.
type Shortage struct {
	SKU       string   `json:"sku"`
	Name      string   `json:"name,omitempty"`
	LineIDs   []string `json:"line_ids"`
	Reason    string   `json:"reason"`
	Requested int      `json:"requested"`
	Available int      `json:"available"`
}

func (s *Shortage) Error() string {
	return fmt.Sprintf("%s: %s (requested %d, available %d)", s.SKU, s.Reason, s.Requested, s.Available)
}

// ValidateAvailability checks every SKU against the catalog. Lines sharing a
// SKU are summed since stock is tracked per product. Every shortage is
// reported, not just the first.
func ValidateAvailability(items []AvailabilityInput) error {
	order := make([]string, 0, len(items))
	bySKU := make(map[string]*Shortage, len(items))
	state := make(map[string]AvailabilityInput, len(items))
	for _, item := range items {
		agg, ok := bySKU[item.SKU]
		if !ok {
			agg = &Shortage{SKU: item.SKU, Name: item.Name}
			bySKU[item.SKU] = agg
			state[item.SKU] = item
			order = append(order, item.SKU)
		}
		agg.Requested += item.Requested
		agg.LineIDs = append(agg.LineIDs, item.LineID)
	}

	var errs error
	for _, sku := range order {
		agg, item := bySKU[sku], state[sku]
		switch {
		case !item.Found:
			agg.Reason = ShortageMissing
		case !item.Active:
			agg.Reason = ShortageInactive
			agg.Available = item.Available
		case agg.Requested > item.Available:
			agg.Reason = ShortageOutOfStock
			agg.Available = item.Available
		default:
			continue
		}
		errs = multierr.Append(errs, agg)
	}
	if errs == nil {
		return nil
	}

	shortages := Shortages(errs)
	return pkgerrors.Wrap(pkgerrors.CodeOutOfStock, errs, fmt.Sprintf("%d item(s) can no longer be ordered", len(shortages))).
		WithDetails(map[string]any{"shortages": shortages})
}

// Shortages extracts every Shortage combined into err.
func Shortages(err error) []*Shortage {
	var out []*Shortage
	for _, e := range multierr.Errors(err) {
		if s, ok := e.(*Shortage); ok {
			out = append(out, s)
		}
	}
	return out
}
