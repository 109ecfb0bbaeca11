package product

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/pagination"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a stock decrement would go negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// Repository persists catalog products.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListFilter narrows a catalog listing.
type ListFilter struct {
	ActiveOnly bool
}

// List returns products ordered by SKU using a key cursor.
func (r *Repository) List(ctx context.Context, params pagination.Params, filter ListFilter) (pagination.Page[models.Product], error) {
	cursor, err := pagination.ParseKeyCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if cursor != nil {
		query = query.Where("sku > ?", cursor.Key)
	}

	var rows []models.Product
	if err := query.Order("sku ASC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return pagination.Page[models.Product]{}, err
	}

	items, more := pagination.Trim(rows, params.Limit)
	page := pagination.Page[models.Product]{Items: items}
	if more {
		page.NextCursor = pagination.EncodeKeyCursor(pagination.KeyCursor{Key: items[len(items)-1].SKU})
	}
	return page, nil
}

// FindBySKU loads a product; gorm.ErrRecordNotFound is returned untouched.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", strings.TrimSpace(sku)).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKUs loads every listed product keyed by SKU. Missing SKUs are absent
// from the result.
func (r *Repository) FindBySKUs(ctx context.Context, skus []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(skus))
	if len(skus) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("sku IN ?", skus).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SKU] = row
	}
	return out, nil
}

// Upsert creates the product or overwrites the editable fields of the product
// with the same SKU.
func (r *Repository) Upsert(ctx context.Context, product *models.Product) (*models.Product, error) {
	tx := r.db.WithContext(ctx)

	var existing models.Product
	err := tx.First(&existing, "sku = ?", product.SKU).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(product).Error; err != nil {
			return nil, err
		}
		return product, nil
	case err != nil:
		return nil, err
	}

	updates := map[string]any{
		"name":           product.Name,
		"description":    product.Description,
		"image_url":      product.ImageURL,
		"base_price":     product.BasePrice,
		"gst_percentage": product.GSTPercentage,
		"option_groups":  product.OptionGroups,
		"stock":          product.Stock,
		"is_active":      product.IsActive,
	}
	if err := tx.Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindBySKU(ctx, product.SKU)
}

// AdjustStock adds delta to the product's stock atomically. A decrement that
// would drop stock below zero fails with ErrInsufficientStock.
func (r *Repository) AdjustStock(ctx context.Context, sku string, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("sku = ? AND stock + ? >= 0", sku, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := r.FindBySKU(ctx, sku); err != nil {
		return err
	}
	return ErrInsufficientStock
}

// SetStock overwrites the stock level.
func (r *Repository) SetStock(ctx context.Context, sku string, stock int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("sku = ?", sku).
		Update("stock", stock)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
