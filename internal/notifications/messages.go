package notifications

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/money"
)

// OTPMessage builds the verification code email.
func OTPMessage(to, name, code string, ttl time.Duration) Message {
	greeting := "Hello"
	if n := strings.TrimSpace(name); n != "" {
		greeting = "Hello " + n
	}
	body := fmt.Sprintf("%s,\n\nYour ArtCart verification code is %s.\nIt expires in %d minutes.\n\nIf you did not request this code you can ignore this email.\n",
		greeting, code, int(ttl.Minutes()))
	return Message{To: to, Subject: "Your ArtCart verification code", Body: body}
}

// OrderPlacedMessage builds the order confirmation email sent after checkout.
func OrderPlacedMessage(order *models.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", order.CustomerName)
	fmt.Fprintf(&b, "We received order %s. Payment is pending verification.\n\n", order.Number)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s%s x %d: Rs. %s\n", item.Name, describeOptions(item.Options), item.Quantity, money.Format(item.LineTotal))
	}
	fmt.Fprintf(&b, "\nSubtotal: Rs. %s\n", money.Format(order.Subtotal))
	fmt.Fprintf(&b, "GST: Rs. %s\n", money.Format(order.GSTTotal))
	fmt.Fprintf(&b, "Shipping: Rs. %s\n", money.Format(order.ShippingCharge))
	fmt.Fprintf(&b, "Total: Rs. %s\n\n", money.Format(order.GrandTotal))
	b.WriteString("We will email you again once the payment is confirmed.\n")
	return Message{
		To:      order.Email,
		Subject: fmt.Sprintf("ArtCart order %s received", order.Number),
		Body:    b.String(),
	}
}

// PaymentReviewedMessage tells the customer the outcome of the payment check.
func PaymentReviewedMessage(order *models.Order, confirmed bool) Message {
	subject := fmt.Sprintf("ArtCart order %s confirmed", order.Number)
	body := fmt.Sprintf("Hello %s,\n\nYour payment for order %s has been confirmed. We will ship it soon.\n", order.CustomerName, order.Number)
	if !confirmed {
		subject = fmt.Sprintf("ArtCart order %s cancelled", order.Number)
		body = fmt.Sprintf("Hello %s,\n\nWe could not verify the payment for order %s, so it has been cancelled.\n", order.CustomerName, order.Number)
		if order.ReviewNote != nil && strings.TrimSpace(*order.ReviewNote) != "" {
			body += "\nNote: " + strings.TrimSpace(*order.ReviewNote) + "\n"
		}
	}
	return Message{To: order.Email, Subject: subject, Body: body}
}

func describeOptions(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	groups := make([]string, 0, len(options))
	for group := range options {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		parts = append(parts, group+": "+options[group])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
