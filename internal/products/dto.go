package product

import (
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/money"
)

// ProductDTO is the API representation of a catalog product.
type ProductDTO struct {
	SKU           string                       `json:"sku"`
	Name          string                       `json:"name"`
	Description   string                       `json:"description"`
	ImageURL      string                       `json:"image_url"`
	BasePrice     string                       `json:"base_price"`
	GSTPercentage string                       `json:"gst_percentage"`
	OptionGroups  map[string]map[string]string `json:"option_groups"`
	Stock         int                          `json:"stock"`
	InStock       bool                         `json:"in_stock"`
	IsActive      bool                         `json:"is_active"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// ProductListDTO wraps a catalog page.
type ProductListDTO struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO renders prices as fixed two-place strings. Option prices that
// cannot be parsed render as 0.00, matching how the cart prices them.
func NewProductDTO(p models.Product) ProductDTO {
	groups := make(map[string]map[string]string, len(p.OptionGroups))
	for group, labels := range p.OptionGroups {
		out := make(map[string]string, len(labels))
		for label, raw := range labels {
			out[label] = money.Format(money.ToDecimal(raw, money.Zero))
		}
		groups[group] = out
	}
	return ProductDTO{
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		BasePrice:     money.Format(p.BasePrice),
		GSTPercentage: money.Format(p.GSTPercentage),
		OptionGroups:  groups,
		Stock:         p.Stock,
		InStock:       p.Stock > 0,
		IsActive:      p.IsActive,
		UpdatedAt:     p.UpdatedAt,
	}
}

// NewProductListDTO maps a listing result.
func NewProductListDTO(res *ListResult) ProductListDTO {
	out := ProductListDTO{Products: make([]ProductDTO, 0, len(res.Products)), NextCursor: res.NextCursor}
	for _, p := range res.Products {
		out.Products = append(out.Products, NewProductDTO(p))
	}
	return out
}
