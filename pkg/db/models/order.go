package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/artcart-backend/pkg/db/types"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
)

// Order is a placed checkout with its price snapshot and manual payment state.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number           string              `gorm:"column:number;not null;uniqueIndex"`
	UserID           *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	CustomerName     string              `gorm:"column:customer_name;not null"`
	Email            string              `gorm:"column:email;not null"`
	Phone            string              `gorm:"column:phone;not null"`
	AddressLine1     string              `gorm:"column:address_line1;not null"`
	AddressLine2     *string             `gorm:"column:address_line2"`
	City             string              `gorm:"column:city;not null"`
	State            string              `gorm:"column:state;not null"`
	PostalCode       string              `gorm:"column:postal_code;not null"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	GSTTotal         decimal.Decimal     `gorm:"column:gst_total;type:numeric(12,2);not null"`
	ShippingCharge   decimal.Decimal     `gorm:"column:shipping_charge;type:numeric(12,2);not null"`
	GrandTotal       decimal.Decimal     `gorm:"column:grand_total;type:numeric(12,2);not null"`
	ItemCount        int                 `gorm:"column:item_count;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentReference *string             `gorm:"column:payment_reference"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending_verification'"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'placed'"`
	Notes            *string             `gorm:"column:notes"`
	ReviewNote       *string             `gorm:"column:review_note"`
	ReviewedAt       *time.Time          `gorm:"column:reviewed_at"`
	ReviewedBy       *uuid.UUID          `gorm:"column:reviewed_by;type:uuid"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Proof            *PaymentProof       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots one priced cart line at checkout.
type OrderItem struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	LineID             string            `gorm:"column:line_id;not null"`
	SKU                string            `gorm:"column:sku;not null"`
	Name               string            `gorm:"column:name;not null"`
	Image              string            `gorm:"column:image;not null;default:''"`
	Options            dbtypes.StringMap `gorm:"column:options;type:jsonb;not null"`
	Quantity           int               `gorm:"column:quantity;not null"`
	PriceBeforeOptions decimal.Decimal   `gorm:"column:price_before_options;type:numeric(12,2);not null"`
	UnitPriceBeforeGST decimal.Decimal   `gorm:"column:unit_price_before_gst;type:numeric(12,2);not null"`
	GSTPercentage      decimal.Decimal   `gorm:"column:gst_percentage;type:numeric(5,2);not null"`
	GSTAmount          decimal.Decimal   `gorm:"column:gst_amount;type:numeric(12,2);not null"`
	LineTotal          decimal.Decimal   `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Options == nil {
		i.Options = dbtypes.StringMap{}
	}
	return nil
}

// PaymentProof points at the uploaded payment screenshot of an order.
type PaymentProof struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	StoragePath string    `gorm:"column:storage_path;not null"`
	ContentType string    `gorm:"column:content_type;not null"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PaymentProof) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// All lists every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{&Product{}, &User{}, &Order{}, &OrderItem{}, &PaymentProof{}}
}
