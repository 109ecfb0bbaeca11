package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/artcart-backend/internal/cart"
	"github.com/angelmondragon/artcart-backend/internal/notifications"
	"github.com/angelmondragon/artcart-backend/internal/orders"
	"github.com/angelmondragon/artcart-backend/internal/pricing"
	product "github.com/angelmondragon/artcart-backend/internal/products"
	"github.com/angelmondragon/artcart-backend/internal/uploads"
	pkgcheckout "github.com/angelmondragon/artcart-backend/pkg/checkout"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type proofStore interface {
	Save(ctx context.Context, prefix string, r io.Reader) (*uploads.Stored, error)
	Delete(path string) error
}

// Service executes checkout orchestration.
type Service interface {
	PaymentDetails(ctx context.Context, sessionID string) (*PaymentDetails, error)
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

// PlaceOrderInput is the customer's checkout form plus the payment screenshot.
type PlaceOrderInput struct {
	SessionID        string
	UserID           *uuid.UUID
	CustomerName     string
	Email            string
	Phone            string
	AddressLine1     string
	AddressLine2     *string
	City             string
	State            string
	PostalCode       string
	PaymentMethod    enums.PaymentMethod
	PaymentReference *string
	Notes            *string
	Screenshot       io.Reader
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	Tx       txRunner
	Cart     cart.Service
	Products *product.Repository
	Orders   *orders.Repository
	Proofs   proofStore
	Mailer   notifications.Mailer
	Payment  config.PaymentConfig
	Currency string
	Metrics  *metrics.ShopMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	tx       txRunner
	cart     cart.Service
	products *product.Repository
	orders   *orders.Repository
	proofs   proofStore
	mailer   notifications.Mailer
	payment  config.PaymentConfig
	currency string
	metrics  *metrics.ShopMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Proofs == nil {
		return nil, fmt.Errorf("proof store required")
	}
	currency := params.Currency
	if currency == "" {
		currency = "INR"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:       params.Tx,
		cart:     params.Cart,
		products: params.Products,
		orders:   params.Orders,
		proofs:   params.Proofs,
		mailer:   params.Mailer,
		payment:  params.Payment,
		currency: currency,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) PaymentDetails(ctx context.Context, sessionID string) (*PaymentDetails, error) {
	summary, err := s.cart.Summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	b := newBill(summary)
	if b.isEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	amount := b.GrandTotal
	return &PaymentDetails{
		AmountDue: amount,
		Currency:  s.currency,
		UPIVPA:    s.payment.UPIVPA,
		PayeeName: s.payment.PayeeName,
		UPILink:   UPILink(s.payment.UPIVPA, s.payment.PayeeName, amount, s.currency),
		Bank:      bankDetails(s.payment),
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithSessionID(ctx, input.SessionID)

	summary, err := s.cart.Summary(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	b := newBill(summary)
	if b.isEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	lines := billableLines(summary.Lines)

	if err := s.checkAvailability(ctx, lines); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	number, err := orders.NewOrderNumber(now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	stored, err := s.proofs.Save(ctx, number, input.Screenshot)
	if err != nil {
		return nil, err
	}

	order := buildOrder(input, b, number, now)
	order.Proof = &models.PaymentProof{
		StoragePath: stored.Path,
		ContentType: stored.ContentType,
		SizeBytes:   stored.Size,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		quantities := quantitiesBySKU(lines)
		for _, sku := range sortedKeys(quantities) {
			qty := quantities[sku]
			if err := products.AdjustStock(ctx, sku, -qty); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) || errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeOutOfStock, "not enough stock").
						WithDetails(map[string]any{"sku": sku, "requested": qty})
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
			}
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return nil
	})
	if err != nil {
		if delErr := s.proofs.Delete(stored.Path); delErr != nil {
			s.logg.Error(s.logg.WithField(ctx, "path", stored.Path), "failed to remove orphaned payment proof", delErr)
		}
		return nil, err
	}

	ctx = s.logg.WithField(ctx, "order_number", order.Number)
	if err := s.cart.Clear(ctx, input.SessionID); err != nil {
		s.logg.Error(ctx, "failed to clear cart after checkout", err)
	}
	s.metrics.IncOrderPlaced(order.PaymentMethod.String())
	s.logg.Info(ctx, "order placed")

	if s.mailer != nil {
		if err := s.mailer.Send(ctx, notifications.OrderPlacedMessage(order)); err != nil {
			s.logg.Error(ctx, "failed to send order confirmation", err)
		}
	}
	return order, nil
}

func (s *service) checkAvailability(ctx context.Context, lines []pricing.Line) error {
	skus := make([]string, 0, len(lines))
	for _, line := range lines {
		skus = append(skus, line.SKU)
	}
	catalog, err := s.products.FindBySKUs(ctx, skus)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	inputs := make([]pkgcheckout.AvailabilityInput, 0, len(lines))
	for _, line := range lines {
		p, found := catalog[line.SKU]
		inputs = append(inputs, pkgcheckout.AvailabilityInput{
			LineID:    line.ID,
			SKU:       line.SKU,
			Name:      line.Name,
			Requested: line.Quantity,
			Found:     found,
			Active:    p.IsActive,
			Available: p.Stock,
		})
	}
	return pkgcheckout.ValidateAvailability(inputs)
}

func buildOrder(input PlaceOrderInput, b bill, number string, now time.Time) *models.Order {
	return &models.Order{
		Number:           number,
		UserID:           input.UserID,
		CustomerName:     strings.TrimSpace(input.CustomerName),
		Email:            strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:            strings.TrimSpace(input.Phone),
		AddressLine1:     strings.TrimSpace(input.AddressLine1),
		AddressLine2:     input.AddressLine2,
		City:             strings.TrimSpace(input.City),
		State:            strings.TrimSpace(input.State),
		PostalCode:       strings.TrimSpace(input.PostalCode),
		Subtotal:         b.Subtotal,
		GSTTotal:         b.GSTTotal,
		ShippingCharge:   b.ShippingCharge,
		GrandTotal:       b.GrandTotal,
		ItemCount:        b.ItemCount,
		PaymentMethod:    input.PaymentMethod,
		PaymentReference: input.PaymentReference,
		PaymentStatus:    enums.PaymentStatusPendingVerification,
		Status:           enums.OrderStatusPlaced,
		Notes:            input.Notes,
		Items:            b.Items,
		CreatedAt:        now,
	}
}

func validateInput(input PlaceOrderInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.SessionID) == "" {
		details["session"] = "cart session required"
	}
	required := map[string]string{
		"customer_name": input.CustomerName,
		"phone":         input.Phone,
		"address_line1": input.AddressLine1,
		"city":          input.City,
		"state":         input.State,
		"postal_code":   input.PostalCode,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			details[field] = "required"
		}
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		details["email"] = "must be a valid email address"
	}
	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "must be upi or bank_transfer"
	}
	if input.Screenshot == nil {
		details["screenshot"] = "payment screenshot required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout details").WithDetails(details)
	}
	return nil
}

func quantitiesBySKU(lines []pricing.Line) map[string]int {
	out := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			out[line.SKU] += line.Quantity
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
