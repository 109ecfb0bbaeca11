package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Line is a fully priced cart line.
type Line struct {
	ID                 string
	SKU                string
	Name               string
	Image              string
	Quantity           int
	Options            Options
	PriceBeforeOptions decimal.Decimal
	Surcharge          decimal.Decimal
	GSTPercentage      decimal.Decimal
	LinePricing
}

// SkippedLine is a stored entry left out of the totals.
type SkippedLine struct {
	ID     string
	Reason enums.SkipReason
	Raw    string
	Err    error
}

// LineResult is the outcome of pricing one stored entry: exactly one of Line
// and Skipped is set.
type LineResult struct {
	Line    *Line
	Skipped *SkippedLine
}

// OK reports whether the entry priced cleanly.
func (r LineResult) OK() bool {
	return r.Line != nil
}

// Summary is the derived totals view of a cart. It is recomputed from storage
// on every request and never persisted.
type Summary struct {
	Lines          []Line
	Skipped        []SkippedLine
	Subtotal       decimal.Decimal
	GSTTotal       decimal.Decimal
	LinesTotal     decimal.Decimal
	ShippingCharge decimal.Decimal
	GrandTotal     decimal.Decimal
	ItemCount      int
}

// IsEmpty reports whether no line contributed to the totals.
func (s Summary) IsEmpty() bool {
	return len(s.Lines) == 0
}

// EmptySummary returns the all-zero summary.
func EmptySummary() Summary {
	return Summary{
		Lines:          []Line{},
		Subtotal:       decimal.Zero,
		GSTTotal:       decimal.Zero,
		LinesTotal:     decimal.Zero,
		ShippingCharge: decimal.Zero,
		GrandTotal:     decimal.Zero,
	}
}

// AggregateJSON decodes the stored cart container and aggregates it. An empty
// or non-object container yields the empty summary.
func (e *Engine) AggregateJSON(ctx context.Context, raw []byte) Summary {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return EmptySummary()
	}
	var entries map[string]json.RawMessage
	if trimmed[0] != '{' {
		e.warnContainer(ctx, raw, errors.New("cart container is not an object"))
		return EmptySummary()
	}
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		e.warnContainer(ctx, raw, err)
		return EmptySummary()
	}
	return e.Aggregate(ctx, entries)
}

// Aggregate prices every entry independently and folds the priced lines into
// totals. Skipped entries are logged and reported but never stop the fold.
func (e *Engine) Aggregate(ctx context.Context, entries map[string]json.RawMessage) Summary {
	summary := EmptySummary()

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		result := e.PriceEntry(ctx, id, entries[id])
		if !result.OK() {
			summary.Skipped = append(summary.Skipped, *result.Skipped)
			continue
		}
		line := *result.Line
		summary.Lines = append(summary.Lines, line)
		summary.Subtotal = summary.Subtotal.Add(line.LineTotalBeforeGST)
		summary.GSTTotal = summary.GSTTotal.Add(line.GSTAmount)
		summary.LinesTotal = summary.LinesTotal.Add(line.LineTotal)
		summary.ItemCount += line.Quantity
	}

	summary.ShippingCharge = e.policy.ShippingFor(summary.LinesTotal)
	summary.GrandTotal = summary.LinesTotal.Add(summary.ShippingCharge)
	return summary
}

// PriceEntry validates and prices a single stored entry.
func (e *Engine) PriceEntry(ctx context.Context, id string, raw json.RawMessage) LineResult {
	stored, warnings, err := decodeStoredLine(raw)
	if err != nil {
		reason := enums.SkipReasonMalformed
		var issue *decodeIssue
		if errors.As(err, &issue) {
			reason = issue.reason
		}
		skipped := &SkippedLine{ID: id, Reason: reason, Raw: string(raw), Err: err}
		e.errorSkipped(ctx, skipped)
		return LineResult{Skipped: skipped}
	}
	for _, w := range warnings {
		e.warnField(ctx, id, w)
	}

	surcharge := stored.Surcharge()
	pricing := PriceLine(stored.PriceBeforeOptions, stored.GSTPercentage, surcharge, stored.Quantity)
	return LineResult{Line: &Line{
		ID:                 id,
		SKU:                stored.SKU,
		Name:               stored.Name,
		Image:              stored.Image,
		Quantity:           stored.Quantity,
		Options:            stored.Options,
		PriceBeforeOptions: stored.PriceBeforeOptions,
		Surcharge:          surcharge,
		GSTPercentage:      stored.GSTPercentage,
		LinePricing:        pricing,
	}}
}

func (e *Engine) warnContainer(ctx context.Context, raw []byte, err error) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"raw":   string(raw),
		"error": err.Error(),
	})
	e.logg.Warn(ctx, "cart container unreadable, returning empty summary")
}

func (e *Engine) warnField(ctx context.Context, id string, w fieldWarning) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"line_id": id,
		"field":   w.field,
		"raw":     w.raw,
		"error":   w.err.Error(),
	})
	e.logg.Warn(ctx, "malformed cart line amount defaulted to zero")
}

func (e *Engine) errorSkipped(ctx context.Context, skipped *SkippedLine) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"line_id": skipped.ID,
		"reason":  skipped.Reason.String(),
		"raw":     skipped.Raw,
	})
	e.logg.Error(ctx, "cart line skipped", skipped.Err)
}
