// Package pricing computes cart line prices and cart totals from stored cart
// data. Nothing in this package returns an error for malformed input: bad
// values fall back to zero, bad lines are skipped, and every recovery is logged.
package pricing

import (
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// ShippingPolicy is the flat shipping rule. Charge applies when the cart total
// is positive and below FreeThreshold.
type ShippingPolicy struct {
	Charge        decimal.Decimal
	FreeThreshold decimal.Decimal
}

// ShippingFor returns the shipping charge owed for the given GST-inclusive
// lines total. The result is either exactly Charge or exactly zero.
func (p ShippingPolicy) ShippingFor(linesTotal decimal.Decimal) decimal.Decimal {
	if linesTotal.IsPositive() && linesTotal.LessThan(p.FreeThreshold) {
		return p.Charge
	}
	return decimal.Zero
}

// Engine holds immutable policy and is safe for concurrent use.
type Engine struct {
	policy ShippingPolicy
	logg   *logger.Logger
}

// NewEngine builds an engine. A nil logger disables diagnostics.
func NewEngine(policy ShippingPolicy, logg *logger.Logger) *Engine {
	return &Engine{policy: policy, logg: logg}
}

// Policy returns the shipping policy the engine applies.
func (e *Engine) Policy() ShippingPolicy {
	return e.policy
}
