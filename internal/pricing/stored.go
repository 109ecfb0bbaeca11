package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/angelmondragon/artcart-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// StoredLine is the record persisted per cart line. Prices are snapshots taken
// when the line was added, so later catalog edits do not reprice the cart.
type StoredLine struct {
	SKU                string          `json:"sku"`
	Quantity           int             `json:"quantity"`
	PriceBeforeOptions decimal.Decimal `json:"price_before_options"`
	UnitPriceBeforeGST decimal.Decimal `json:"unit_price_before_gst"`
	GSTPercentage      decimal.Decimal `json:"gst_percentage"`
	Options            Options         `json:"options"`
	Name               string          `json:"name"`
	Image              string          `json:"image"`
}

// Surcharge is the option delta captured in the stored snapshot.
func (s StoredLine) Surcharge() decimal.Decimal {
	return s.UnitPriceBeforeGST.Sub(s.PriceBeforeOptions)
}

// storedLineWire mirrors StoredLine with loosely typed numbers so a single bad
// field can be recovered instead of failing the whole decode.
type storedLineWire struct {
	SKU                string          `json:"sku"`
	Quantity           json.RawMessage `json:"quantity"`
	PriceBeforeOptions json.RawMessage `json:"price_before_options"`
	UnitPriceBeforeGST json.RawMessage `json:"unit_price_before_gst"`
	GSTPercentage      json.RawMessage `json:"gst_percentage"`
	Options            Options         `json:"options"`
	Name               string          `json:"name"`
	Image              string          `json:"image"`
}

// field names used in diagnostics
const (
	fieldPriceBeforeOptions = "price_before_options"
	fieldUnitPriceBeforeGST = "unit_price_before_gst"
	fieldGSTPercentage      = "gst_percentage"
)

type decodeIssue struct {
	reason enums.SkipReason
	err    error
}

func (d *decodeIssue) Error() string {
	return fmt.Sprintf("%s: %v", d.reason, d.err)
}

// fieldWarning records a malformed price that was replaced by zero.
type fieldWarning struct {
	field string
	raw   string
	err   error
}

// decodeStoredLine validates one raw entry at the storage boundary.
func decodeStoredLine(raw json.RawMessage) (StoredLine, []fieldWarning, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return StoredLine{}, nil, &decodeIssue{reason: enums.SkipReasonMalformed, err: fmt.Errorf("entry is not an object")}
	}

	var wire storedLineWire
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return StoredLine{}, nil, &decodeIssue{reason: enums.SkipReasonMalformed, err: err}
	}

	qty, err := decodeQuantity(wire.Quantity)
	if err != nil {
		return StoredLine{}, nil, &decodeIssue{reason: enums.SkipReasonInvalidQuantity, err: err}
	}

	var warnings []fieldWarning
	price := func(field string, value json.RawMessage) decimal.Decimal {
		d, err := money.Coerce(value)
		if err != nil {
			warnings = append(warnings, fieldWarning{field: field, raw: string(value), err: err})
			return decimal.Zero
		}
		return d
	}

	line := StoredLine{
		SKU:                wire.SKU,
		Quantity:           qty,
		PriceBeforeOptions: price(fieldPriceBeforeOptions, wire.PriceBeforeOptions),
		GSTPercentage:      price(fieldGSTPercentage, wire.GSTPercentage),
		Options:            wire.Options,
		Name:               wire.Name,
		Image:              wire.Image,
	}
	if isAbsent(wire.UnitPriceBeforeGST) {
		line.UnitPriceBeforeGST = line.PriceBeforeOptions
	} else {
		line.UnitPriceBeforeGST = price(fieldUnitPriceBeforeGST, wire.UnitPriceBeforeGST)
	}
	return line, warnings, nil
}

// decodeQuantity accepts whole numbers in number or string form. Negative
// values clamp to zero.
func decodeQuantity(raw json.RawMessage) (int, error) {
	if isAbsent(raw) {
		return 0, fmt.Errorf("quantity missing")
	}
	d, err := money.Coerce(raw)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("quantity %s is not a whole number", d)
	}
	if d.IsNegative() {
		return 0, nil
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("quantity %s out of range", d)
	}
	return int(d.IntPart()), nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
