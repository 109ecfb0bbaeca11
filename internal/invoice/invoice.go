package invoice

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/money"
)

// Party is a name and address block printed on the invoice.
type Party struct {
	Name  string
	Lines []string
	GSTIN string
	Email string
	Phone string
}

// Line is one invoiced product with amounts as fixed two-place strings.
type Line struct {
	Description   string
	Quantity      int
	UnitPrice     string
	GSTPercentage string
	GSTAmount     string
	LineTotal     string
}

// Document is everything needed to render an invoice.
type Document struct {
	Number        string
	IssuedAt      time.Time
	Seller        Party
	Buyer         Party
	Lines         []Line
	Subtotal      string
	GSTTotal      string
	Shipping      string
	GrandTotal    string
	Currency      string
	PaymentMethod string
	PaymentStatus string
}

// Build turns a placed order into an invoice document.
func Build(order *models.Order, merchant config.MerchantConfig, currency string) Document {
	if currency == "" {
		currency = "INR"
	}
	buyerLines := []string{order.AddressLine1}
	if order.AddressLine2 != nil && strings.TrimSpace(*order.AddressLine2) != "" {
		buyerLines = append(buyerLines, strings.TrimSpace(*order.AddressLine2))
	}
	buyerLines = append(buyerLines, fmt.Sprintf("%s, %s %s", order.City, order.State, order.PostalCode))

	doc := Document{
		Number:   "INV-" + strings.TrimPrefix(order.Number, "AC-"),
		IssuedAt: order.CreatedAt,
		Seller: Party{
			Name:  merchant.Name,
			Lines: splitAddress(merchant.Address),
			GSTIN: merchant.GSTIN,
			Email: merchant.Email,
			Phone: merchant.Phone,
		},
		Buyer: Party{
			Name:  order.CustomerName,
			Lines: buyerLines,
			Email: order.Email,
			Phone: order.Phone,
		},
		Lines:         make([]Line, 0, len(order.Items)),
		Subtotal:      money.Format(order.Subtotal),
		GSTTotal:      money.Format(order.GSTTotal),
		Shipping:      money.Format(order.ShippingCharge),
		GrandTotal:    money.Format(order.GrandTotal),
		Currency:      currency,
		PaymentMethod: order.PaymentMethod.String(),
		PaymentStatus: order.PaymentStatus.String(),
	}
	for _, item := range order.Items {
		doc.Lines = append(doc.Lines, Line{
			Description:   describe(item),
			Quantity:      item.Quantity,
			UnitPrice:     money.Format(item.UnitPriceBeforeGST),
			GSTPercentage: money.Format(item.GSTPercentage),
			GSTAmount:     money.Format(item.GSTAmount),
			LineTotal:     money.Format(item.LineTotal),
		})
	}
	return doc
}

func describe(item models.OrderItem) string {
	if len(item.Options) == 0 {
		return item.Name
	}
	groups := make([]string, 0, len(item.Options))
	for group := range item.Options {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		parts = append(parts, group+": "+item.Options[group])
	}
	return item.Name + " (" + strings.Join(parts, ", ") + ")"
}

func splitAddress(address string) []string {
	var out []string
	for _, part := range strings.Split(address, "\n") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
