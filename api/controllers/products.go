package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/artcart-backend/api/responses"
	"github.com/angelmondragon/artcart-backend/api/validators"
	"github.com/angelmondragon/artcart-backend/internal/pricing"
	product "github.com/angelmondragon/artcart-backend/internal/products"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
)

type saveProductRequest struct {
	Name          string                                `json:"name" validate:"required,max=200"`
	Description   string                                `json:"description" validate:"max=4000"`
	ImageURL      string                                `json:"image_url" validate:"omitempty,url"`
	BasePrice     decimal.Decimal                       `json:"base_price"`
	GSTPercentage decimal.Decimal                       `json:"gst_percentage"`
	OptionGroups  map[string]map[string]json.RawMessage `json:"option_groups"`
	Stock         int                                   `json:"stock" validate:"gte=0"`
	IsActive      *bool                                 `json:"is_active"`
}

type setStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// ProductList returns a page of active catalog products.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return productList(svc, logg, false)
}

// AdminProductList returns a page of every product, inactive included.
func AdminProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return productList(svc, logg, true)
}

func productList(svc product.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), product.ListInput{Pagination: params, IncludeInactive: includeInactive})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product.NewProductListDTO(result))
	}
}

// ProductDetail returns one product. Inactive products are hidden from shoppers.
func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		p, err := svc.GetBySKU(r.Context(), chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !p.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, product.NewProductDTO(*p))
	}
}

// AdminProductSave creates or replaces the product at {sku}.
func AdminProductSave(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload saveProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.IsActive != nil {
			active = *payload.IsActive
		}
		saved, err := svc.Save(r.Context(), product.SaveInput{
			SKU:           validators.SanitizeString(chi.URLParam(r, "sku"), 64),
			Name:          validators.SanitizeString(payload.Name, 200),
			Description:   validators.SanitizeString(payload.Description, 4000),
			ImageURL:      validators.SanitizeString(payload.ImageURL, 2048),
			BasePrice:     payload.BasePrice,
			GSTPercentage: payload.GSTPercentage,
			OptionGroups:  pricing.OptionTable(payload.OptionGroups),
			Stock:         payload.Stock,
			IsActive:      active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product.NewProductDTO(*saved))
	}
}

// AdminProductStock overwrites the stock count of a product.
func AdminProductStock(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.SetStock(r.Context(), chi.URLParam(r, "sku"), *payload.Stock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product.NewProductDTO(*updated))
	}
}
