package pricing

import (
	"context"
	"encoding/json"

	"github.com/angelmondragon/artcart-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// Options maps an option group (e.g. "Frame") to the chosen label (e.g. "Wood").
type Options map[string]string

// OptionTable maps group -> label -> surcharge. Surcharges are kept as raw JSON
// values and coerced on use, so a single bad entry never breaks pricing.
type OptionTable map[string]map[string]json.RawMessage

// ResolveSurcharge sums the surcharge of every selected (group, label) pair the
// table knows about. Unknown groups, unknown labels and malformed prices add
// zero and are logged.
func (e *Engine) ResolveSurcharge(ctx context.Context, table OptionTable, selected Options) decimal.Decimal {
	total := decimal.Zero
	for group, label := range selected {
		labels, ok := table[group]
		if !ok {
			e.warnOption(ctx, group, label, "unknown option group")
			continue
		}
		raw, ok := labels[label]
		if !ok {
			e.warnOption(ctx, group, label, "unknown option label")
			continue
		}
		price, err := money.Coerce(raw)
		if err != nil {
			fctx := e.logg.WithField(ctx, "raw_price", string(raw))
			e.warnOption(fctx, group, label, "malformed option price")
			continue
		}
		total = total.Add(price)
	}
	return total
}

// Validate reports the first surcharge in the table that cannot be coerced.
func (t OptionTable) Validate() error {
	for group, labels := range t {
		for label, raw := range labels {
			if _, err := money.Coerce(raw); err != nil {
				return &InvalidOptionPriceError{Group: group, Label: label, Err: err}
			}
		}
	}
	return nil
}

// InvalidOptionPriceError identifies an option whose surcharge is not a number.
type InvalidOptionPriceError struct {
	Group string
	Label string
	Err   error
}

func (e *InvalidOptionPriceError) Error() string {
	return "option " + e.Group + "/" + e.Label + ": " + e.Err.Error()
}

func (e *InvalidOptionPriceError) Unwrap() error {
	return e.Err
}

func (e *Engine) warnOption(ctx context.Context, group, label, msg string) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"option_group": group,
		"option_label": label,
	})
	e.logg.Warn(ctx, msg)
}
