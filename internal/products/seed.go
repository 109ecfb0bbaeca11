package product

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/artcart-backend/internal/pricing"
)

// SeedProduct is one catalog entry in a seed file.
type SeedProduct struct {
	SKU           string              `json:"sku"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	ImageURL      string              `json:"image_url"`
	BasePrice     decimal.Decimal     `json:"base_price"`
	GSTPercentage decimal.Decimal     `json:"gst_percentage"`
	OptionGroups  pricing.OptionTable `json:"option_groups"`
	Stock         int                 `json:"stock"`
	IsActive      *bool               `json:"is_active"`
}

// Seed upserts every product in a JSON array read from r and returns how many
// were saved. It stops at the first product that fails validation.
func Seed(ctx context.Context, svc Service, r io.Reader) (int, error) {
	var entries []SeedProduct
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&entries); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	for i, entry := range entries {
		active := entry.IsActive == nil || *entry.IsActive
		if _, err := svc.Save(ctx, SaveInput{
			SKU:           entry.SKU,
			Name:          entry.Name,
			Description:   entry.Description,
			ImageURL:      entry.ImageURL,
			BasePrice:     entry.BasePrice,
			GSTPercentage: entry.GSTPercentage,
			OptionGroups:  entry.OptionGroups,
			Stock:         entry.Stock,
			IsActive:      active,
		}); err != nil {
			return i, fmt.Errorf("seed %q: %w", entry.SKU, err)
		}
	}
	return len(entries), nil
}
