package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/artcart-backend/internal/pricing"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/artcart-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxGST = decimal.NewFromInt(100)

// Service exposes catalog reads for shoppers and catalog edits for admins.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	Save(ctx context.Context, input SaveInput) (*models.Product, error)
	SetStock(ctx context.Context, sku string, stock int) (*models.Product, error)
}

// ListInput holds catalog listing parameters.
type ListInput struct {
	Pagination      pagination.Params
	IncludeInactive bool
}

// ListResult is one page of catalog products.
type ListResult struct {
	Products   []models.Product
	NextCursor string
}

// SaveInput is an admin create-or-replace payload keyed by SKU.
type SaveInput struct {
	SKU           string
	Name          string
	Description   string
	ImageURL      string
	BasePrice     decimal.Decimal
	GSTPercentage decimal.Decimal
	OptionGroups  pricing.OptionTable
	Stock         int
	IsActive      bool
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	page, err := s.repo.List(ctx, input.Pagination, ListFilter{ActiveOnly: !input.IncludeInactive})
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return &ListResult{Products: page.Items, NextCursor: page.NextCursor}, nil
}

// GetBySKU returns NOT_FOUND for unknown SKUs so callers never mistake a
// missing product for a free one.
func (s *service) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	product, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"sku": sku})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) Save(ctx context.Context, input SaveInput) (*models.Product, error) {
	if err := validateSave(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		SKU:           strings.TrimSpace(input.SKU),
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		ImageURL:      strings.TrimSpace(input.ImageURL),
		BasePrice:     input.BasePrice,
		GSTPercentage: input.GSTPercentage,
		OptionGroups:  dbtypes.OptionTable(input.OptionGroups),
		Stock:         input.Stock,
		IsActive:      input.IsActive,
	}
	saved, err := s.repo.Upsert(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product")
	}
	s.logg.Info(s.logg.WithField(ctx, "sku", saved.SKU), "product saved")
	return saved, nil
}

func (s *service) SetStock(ctx context.Context, sku string, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if err := s.repo.SetStock(ctx, strings.TrimSpace(sku), stock); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set stock")
	}
	return s.GetBySKU(ctx, sku)
}

func validateSave(input SaveInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.SKU) == "" {
		details["sku"] = "required"
	}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if input.BasePrice.IsNegative() {
		details["base_price"] = "must be zero or greater"
	}
	if input.GSTPercentage.IsNegative() || input.GSTPercentage.GreaterThan(maxGST) {
		details["gst_percentage"] = "must be between 0 and 100"
	}
	if input.Stock < 0 {
		details["stock"] = "must be zero or greater"
	}
	if err := input.OptionGroups.Validate(); err != nil {
		details["option_groups"] = err.Error()
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}
	return nil
}
