package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics records storefront activity. A nil *ShopMetrics is a no-op.
type ShopMetrics struct {
	cartSummaries *prometheus.CounterVec
	linesSkipped  *prometheus.CounterVec
	ordersPlaced  *prometheus.CounterVec
	reviews       *prometheus.CounterVec
	otpEvents     *prometheus.CounterVec
}

// NewShopMetrics registers the storefront counters on the provided registerer.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	cartSummaries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_summaries_total",
		Help: "Cart summaries computed, split by whether the cart had lines.",
	}, []string{"state"})
	linesSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_lines_skipped_total",
		Help: "Stored cart lines left out of totals.",
	}, []string{"reason"})
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed at checkout.",
	}, []string{"payment_method"})
	reviews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reviews_total",
		Help: "Payment proofs reviewed by an admin.",
	}, []string{"decision"})
	otpEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_events_total",
		Help: "One-time code lifecycle events.",
	}, []string{"event"})
	reg.MustRegister(cartSummaries, linesSkipped, ordersPlaced, reviews, otpEvents)
	return &ShopMetrics{
		cartSummaries: cartSummaries,
		linesSkipped:  linesSkipped,
		ordersPlaced:  ordersPlaced,
		reviews:       reviews,
		otpEvents:     otpEvents,
	}
}

// IncCartSummary counts a computed summary.
func (m *ShopMetrics) IncCartSummary(empty bool) {
	if m == nil || m.cartSummaries == nil {
		return
	}
	state := "filled"
	if empty {
		state = "empty"
	}
	m.cartSummaries.WithLabelValues(state).Inc()
}

// IncLineSkipped counts a stored line that could not be priced.
func (m *ShopMetrics) IncLineSkipped(reason string) {
	if m == nil || m.linesSkipped == nil {
		return
	}
	m.linesSkipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncOrderPlaced counts a placed order.
func (m *ShopMetrics) IncOrderPlaced(paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncPaymentReview counts an admin payment decision.
func (m *ShopMetrics) IncPaymentReview(decision string) {
	if m == nil || m.reviews == nil {
		return
	}
	m.reviews.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncOTPEvent counts an OTP event (issued, verified, expired, mismatch, locked).
func (m *ShopMetrics) IncOTPEvent(event string) {
	if m == nil || m.otpEvents == nil {
		return
	}
	m.otpEvents.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
