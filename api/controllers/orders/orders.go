package orders

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/artcart-backend/api/middleware"
	"github.com/angelmondragon/artcart-backend/api/responses"
	"github.com/angelmondragon/artcart-backend/api/validators"
	"github.com/angelmondragon/artcart-backend/internal/invoice"
	ordersvc "github.com/angelmondragon/artcart-backend/internal/orders"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
)

type proofOpener interface {
	Open(path string) (io.ReadCloser, error)
}

// InvoiceSettings carries the merchant identity printed on invoices.
type InvoiceSettings struct {
	Merchant config.MerchantConfig
	Currency string
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=confirm reject"`
	Note     string `json:"note" validate:"max=500"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed shipped delivered cancelled"`
	Note   string `json:"note" validate:"max=500"`
}

// List returns the caller's orders, newest first.
func List(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, false)
}

// AdminList returns every order, optionally filtered by status and
// payment_status query parameters.
func AdminList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, true)
}

func list(svc ordersvc.Service, logg *logger.Logger, all bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := ordersvc.ListInput{Pagination: params, All: all}
		if all {
			if err := applyFilters(r, &input); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.List(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersvc.NewOrderListDTO(result))
	}
}

// Detail returns one order the caller may see.
func Detail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r, logg)
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersvc.NewOrderDTO(order))
	}
}

// Invoice streams the PDF invoice of a paid order.
func Invoice(svc ordersvc.Service, settings InvoiceSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r, logg)
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.PaymentStatus != enums.PaymentStatusConfirmed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is available once payment is confirmed"))
			return
		}

		doc := invoice.Build(order, settings.Merchant, settings.Currency)
		var buf bytes.Buffer
		if err := invoice.Render(&buf, doc); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice"))
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Number+`.pdf"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// AdminPaymentReview records the verdict on an order's payment proof.
func AdminPaymentReview(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r, logg)
		if !ok {
			return
		}
		var payload reviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ReviewPayment(r.Context(), actor, orderID, ordersvc.ReviewInput{
			Decision: enums.PaymentDecision(payload.Decision),
			Note:     payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersvc.NewOrderDTO(order))
	}
}

// AdminUpdateStatus moves an order along its fulfilment lifecycle.
func AdminUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r, logg)
		if !ok {
			return
		}
		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), actor, orderID, ordersvc.StatusInput{
			Status: enums.OrderStatus(payload.Status),
			Note:   payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersvc.NewOrderDTO(order))
	}
}

// AdminPaymentProof streams the uploaded payment screenshot of an order.
func AdminPaymentProof(svc ordersvc.Service, proofs proofOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r, logg)
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.Proof == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "payment proof not found"))
			return
		}

		rc, err := proofs.Open(order.Proof.StoragePath)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", order.Proof.ContentType)
		w.Header().Set("Content-Disposition", `inline; filename="`+path.Base(order.Proof.StoragePath)+`"`)
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, rc); err != nil && logg != nil {
			logg.Error(r.Context(), "stream payment proof", err)
		}
	}
}

func requireActor(w http.ResponseWriter, r *http.Request, svc ordersvc.Service, logg *logger.Logger) (ordersvc.Actor, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
		return ordersvc.Actor{}, false
	}
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return ordersvc.Actor{}, false
	}
	return ordersvc.Actor{UserID: userID, Role: enums.UserRole(middleware.RoleFromContext(r.Context()))}, true
}

func orderIDParam(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
		return uuid.Nil, false
	}
	return id, true
}

func applyFilters(r *http.Request, input *ordersvc.ListInput) error {
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		input.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_status filter")
		}
		input.PaymentStatus = &status
	}
	return nil
}
