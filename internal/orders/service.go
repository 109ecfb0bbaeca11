package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/artcart-backend/internal/notifications"
	product "github.com/angelmondragon/artcart-backend/internal/products"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/metrics"
	"github.com/angelmondragon/artcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor may manage every order.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// Service exposes order reads and the merchant back-office actions.
type Service interface {
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor Actor, input ListInput) (*ListResult, error)
	ReviewPayment(ctx context.Context, actor Actor, id uuid.UUID, input ReviewInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input StatusInput) (*models.Order, error)
}

// ListInput selects a page of orders. Filters apply to admins only.
type ListInput struct {
	Pagination    pagination.Params
	All           bool
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// ListResult is one page of orders.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

// ReviewInput is the admin verdict on a payment proof.
type ReviewInput struct {
	Decision enums.PaymentDecision
	Note     string
}

// StatusInput moves an order along its fulfilment lifecycle.
type StatusInput struct {
	Status enums.OrderStatus
	Note   string
}

// ServiceParams bundles the dependencies of the orders service.
type ServiceParams struct {
	Tx       txRunner
	Orders   *Repository
	Products *product.Repository
	Mailer   notifications.Mailer
	Metrics  *metrics.ShopMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	tx       txRunner
	orders   *Repository
	products *product.Repository
	mailer   notifications.Mailer
	metrics  *metrics.ShopMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:       params.Tx,
		orders:   params.Orders,
		products: params.Products,
		mailer:   params.Mailer,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, s.orders, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (order.UserID == nil || *order.UserID != actor.UserID) {
		// hide other customers' orders entirely
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, input ListInput) (*ListResult, error) {
	var (
		page pagination.Page[models.Order]
		err  error
	)
	if input.All {
		if !actor.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
		}
		page, err = s.orders.ListAll(ctx, input.Pagination, ListFilter{Status: input.Status, PaymentStatus: input.PaymentStatus})
	} else {
		if actor.UserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		page, err = s.orders.ListByUser(ctx, actor.UserID, input.Pagination)
	}
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return &ListResult{Orders: page.Items, NextCursor: page.NextCursor}, nil
}

func (s *service) ReviewPayment(ctx context.Context, actor Actor, id uuid.UUID, input ReviewInput) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment decision").
			WithDetails(map[string]any{"decision": input.Decision})
	}
	note := trimmedPtr(input.Note)
	if input.Decision == enums.PaymentDecisionReject && note == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a note is required when rejecting a payment")
	}

	var reviewed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		order, err := s.load(ctx, orders, id)
		if err != nil {
			return err
		}
		if order.PaymentStatus != enums.PaymentStatusPendingVerification || order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already reviewed").
				WithDetails(map[string]any{"payment_status": order.PaymentStatus, "status": order.Status})
		}

		now := s.now().UTC()
		updates := map[string]any{
			"review_note": note,
			"reviewed_at": now,
			"reviewed_by": actor.UserID,
		}
		switch input.Decision {
		case enums.PaymentDecisionConfirm:
			updates["payment_status"] = enums.PaymentStatusConfirmed
			if order.Status == enums.OrderStatusPlaced {
				updates["status"] = enums.OrderStatusConfirmed
			}
		case enums.PaymentDecisionReject:
			updates["payment_status"] = enums.PaymentStatusRejected
			updates["status"] = enums.OrderStatusCancelled
		}
		if err := transition(ctx, orders, order, updates); err != nil {
			return err
		}
		if input.Decision == enums.PaymentDecisionReject {
			if err := s.restock(ctx, tx, order); err != nil {
				return err
			}
		}
		reviewed, err = s.load(ctx, orders, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentReview(input.Decision.String())
	ctx = s.logg.WithFields(ctx, map[string]any{"order_number": reviewed.Number, "decision": input.Decision.String()})
	s.logg.Info(ctx, "payment reviewed")
	s.notify(ctx, notifications.PaymentReviewedMessage(reviewed, input.Decision == enums.PaymentDecisionConfirm))
	return reviewed, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input StatusInput) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": input.Status})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		order, err := s.load(ctx, orders, id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": input.Status})
		}
		if input.Status == enums.OrderStatusConfirmed && order.PaymentStatus != enums.PaymentStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment must be confirmed first")
		}

		updates := map[string]any{"status": input.Status}
		if note := trimmedPtr(input.Note); note != nil {
			updates["notes"] = note
		}
		cancelling := input.Status == enums.OrderStatusCancelled
		if cancelling && order.PaymentStatus == enums.PaymentStatusPendingVerification {
			updates["payment_status"] = enums.PaymentStatusRejected
		}
		if err := transition(ctx, orders, order, updates); err != nil {
			return err
		}
		if cancelling {
			if err := s.restock(ctx, tx, order); err != nil {
				return err
			}
		}
		updated, err = s.load(ctx, orders, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"order_number": updated.Number, "status": updated.Status.String()})
	s.logg.Info(ctx, "order status updated")
	return updated, nil
}

// transition writes updates guarded by the state order was loaded in, so only
// one of two racing reviews or cancellations reaches the stock adjustment.
func transition(ctx context.Context, repo *Repository, order *models.Order, updates map[string]any) error {
	err := repo.TransitionFields(ctx, order.ID, StateOf(order), updates)
	if errors.Is(err, ErrStateChanged) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed while it was being updated").
			WithDetails(map[string]any{"payment_status": order.PaymentStatus, "status": order.Status})
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
	}
	return nil
}

// restock returns every item of order to inventory. Products deleted since
// the order was placed are skipped.
func (s *service) restock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	products := s.products.WithTx(tx)
	for _, item := range order.Items {
		err := products.AdjustStock(ctx, item.SKU, item.Quantity)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "sku", item.SKU), "restock skipped, product no longer exists")
			continue
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restock product")
		}
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) notify(ctx context.Context, msg notifications.Message) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logg.Error(ctx, "failed to send order email", err)
	}
}

func trimmedPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
