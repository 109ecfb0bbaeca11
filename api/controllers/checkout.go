package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/artcart-backend/api/middleware"
	"github.com/angelmondragon/artcart-backend/api/responses"
	"github.com/angelmondragon/artcart-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/artcart-backend/internal/checkout"
	"github.com/angelmondragon/artcart-backend/internal/orders"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/money"
)

const (
	checkoutPayloadField    = "payload"
	checkoutScreenshotField = "screenshot"
	multipartOverhead       = 1 << 20
)

type checkoutRequest struct {
	CustomerName     string  `json:"customer_name" validate:"required,max=120"`
	Email            string  `json:"email" validate:"required,email"`
	Phone            string  `json:"phone" validate:"required,min=7,max=20"`
	AddressLine1     string  `json:"address_line1" validate:"required,max=200"`
	AddressLine2     *string `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	City             string  `json:"city" validate:"required,max=100"`
	State            string  `json:"state" validate:"required,max=100"`
	PostalCode       string  `json:"postal_code" validate:"required,max=12"`
	PaymentMethod    string  `json:"payment_method" validate:"required,oneof=upi bank_transfer"`
	PaymentReference *string `json:"payment_reference,omitempty" validate:"omitempty,max=100"`
	Notes            *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type paymentDetailsResponse struct {
	AmountDue string                   `json:"amount_due"`
	Currency  string                   `json:"currency"`
	UPIVPA    string                   `json:"upi_vpa"`
	PayeeName string                   `json:"payee_name"`
	UPILink   string                   `json:"upi_link"`
	Bank      *checkoutsvc.BankDetails `json:"bank,omitempty"`
}

// CheckoutPaymentDetails tells the shopper how much to pay and where.
func CheckoutPaymentDetails(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		details, err := svc.PaymentDetails(r.Context(), middleware.CartSessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentDetailsResponse{
			AmountDue: money.Format(details.AmountDue),
			Currency:  details.Currency,
			UPIVPA:    details.UPIVPA,
			PayeeName: details.PayeeName,
			UPILink:   details.UPILink,
			Bank:      details.Bank,
		})
	}
}

// Checkout places an order from the session cart. The request is multipart
// with the customer details as JSON in "payload" and the payment screenshot
// in "screenshot".
func Checkout(svc checkoutsvc.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(maxUploadBytes + multipartOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "request too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expected multipart form"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		var payload checkoutRequest
		if err := validators.DecodeJSONString(r.FormValue(checkoutPayloadField), &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, _, err := r.FormFile(checkoutScreenshotField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment screenshot required").
				WithDetails(map[string]string{checkoutScreenshotField: "is required"}))
			return
		}
		defer file.Close()

		input := checkoutsvc.PlaceOrderInput{
			SessionID:        middleware.CartSessionFromContext(r.Context()),
			CustomerName:     payload.CustomerName,
			Email:            payload.Email,
			Phone:            payload.Phone,
			AddressLine1:     payload.AddressLine1,
			AddressLine2:     trimmed(payload.AddressLine2),
			City:             payload.City,
			State:            payload.State,
			PostalCode:       payload.PostalCode,
			PaymentMethod:    enums.PaymentMethod(payload.PaymentMethod),
			PaymentReference: trimmed(payload.PaymentReference),
			Notes:            trimmed(payload.Notes),
			Screenshot:       file,
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if userID, err := uuid.Parse(raw); err == nil {
				input.UserID = &userID
			}
		}

		order, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orders.NewOrderDTO(order))
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
