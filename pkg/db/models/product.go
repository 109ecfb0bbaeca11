package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/artcart-backend/pkg/db/types"
)

// Product is a catalog artwork with its option surcharge table.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SKU           string              `gorm:"column:sku;not null;uniqueIndex"`
	Name          string              `gorm:"column:name;not null"`
	Description   string              `gorm:"column:description;not null;default:''"`
	ImageURL      string              `gorm:"column:image_url;not null;default:''"`
	BasePrice     decimal.Decimal     `gorm:"column:base_price;type:numeric(12,2);not null"`
	GSTPercentage decimal.Decimal     `gorm:"column:gst_percentage;type:numeric(5,2);not null"`
	OptionGroups  dbtypes.OptionTable `gorm:"column:option_groups;type:jsonb;not null"`
	Stock         int                 `gorm:"column:stock;not null;default:0"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.OptionGroups == nil {
		p.OptionGroups = dbtypes.OptionTable{}
	}
	return nil
}
