package orders

import (
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/angelmondragon/artcart-backend/pkg/money"
	"github.com/google/uuid"
)

// OrderItemDTO is the transport shape of an order line.
type OrderItemDTO struct {
	LineID             string            `json:"line_id"`
	SKU                string            `json:"sku"`
	Name               string            `json:"name"`
	Image              string            `json:"image,omitempty"`
	Options            map[string]string `json:"options"`
	Quantity           int               `json:"quantity"`
	PriceBeforeOptions string            `json:"price_before_options"`
	UnitPriceBeforeGST string            `json:"unit_price_before_gst"`
	GSTPercentage      string            `json:"gst_percentage"`
	GSTAmount          string            `json:"gst_amount"`
	LineTotal          string            `json:"line_total"`
}

// OrderDTO is the transport shape of an order.
type OrderDTO struct {
	ID               uuid.UUID           `json:"id"`
	Number           string              `json:"number"`
	CustomerName     string              `json:"customer_name"`
	Email            string              `json:"email"`
	Phone            string              `json:"phone"`
	AddressLine1     string              `json:"address_line1"`
	AddressLine2     *string             `json:"address_line2,omitempty"`
	City             string              `json:"city"`
	State            string              `json:"state"`
	PostalCode       string              `json:"postal_code"`
	Items            []OrderItemDTO      `json:"items"`
	Subtotal         string              `json:"subtotal"`
	GSTTotal         string              `json:"gst_total"`
	ShippingCharge   string              `json:"shipping_charge"`
	GrandTotal       string              `json:"grand_total"`
	ItemCount        int                 `json:"item_count"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
	Status           enums.OrderStatus   `json:"status"`
	Notes            *string             `json:"notes,omitempty"`
	ReviewNote       *string             `json:"review_note,omitempty"`
	ReviewedAt       *time.Time          `json:"reviewed_at,omitempty"`
	HasPaymentProof  bool                `json:"has_payment_proof"`
	CreatedAt        time.Time           `json:"created_at"`
}

// OrderListDTO is one page of orders.
type OrderListDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps a model into its transport shape.
func NewOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		options := map[string]string(item.Options)
		if options == nil {
			options = map[string]string{}
		}
		items = append(items, OrderItemDTO{
			LineID:             item.LineID,
			SKU:                item.SKU,
			Name:               item.Name,
			Image:              item.Image,
			Options:            options,
			Quantity:           item.Quantity,
			PriceBeforeOptions: money.Format(item.PriceBeforeOptions),
			UnitPriceBeforeGST: money.Format(item.UnitPriceBeforeGST),
			GSTPercentage:      money.Format(item.GSTPercentage),
			GSTAmount:          money.Format(item.GSTAmount),
			LineTotal:          money.Format(item.LineTotal),
		})
	}
	return OrderDTO{
		ID:               o.ID,
		Number:           o.Number,
		CustomerName:     o.CustomerName,
		Email:            o.Email,
		Phone:            o.Phone,
		AddressLine1:     o.AddressLine1,
		AddressLine2:     o.AddressLine2,
		City:             o.City,
		State:            o.State,
		PostalCode:       o.PostalCode,
		Items:            items,
		Subtotal:         money.Format(o.Subtotal),
		GSTTotal:         money.Format(o.GSTTotal),
		ShippingCharge:   money.Format(o.ShippingCharge),
		GrandTotal:       money.Format(o.GrandTotal),
		ItemCount:        o.ItemCount,
		PaymentMethod:    o.PaymentMethod,
		PaymentReference: o.PaymentReference,
		PaymentStatus:    o.PaymentStatus,
		Status:           o.Status,
		Notes:            o.Notes,
		ReviewNote:       o.ReviewNote,
		ReviewedAt:       o.ReviewedAt,
		HasPaymentProof:  o.Proof != nil,
		CreatedAt:        o.CreatedAt,
	}
}

// NewOrderListDTO maps a page of orders.
func NewOrderListDTO(result *ListResult) OrderListDTO {
	out := OrderListDTO{Orders: make([]OrderDTO, 0, len(result.Orders)), NextCursor: result.NextCursor}
	for i := range result.Orders {
		out.Orders = append(out.Orders, NewOrderDTO(&result.Orders[i]))
	}
	return out
}
