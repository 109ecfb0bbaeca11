package orders

import (
	"context"
	"errors"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/angelmondragon/artcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists orders with their items and payment proof.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order, its items and its proof in one statement batch.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with items and proof.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_id ASC") }).
		Preload("Proof").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListFilter narrows order listings.
type ListFilter struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	return r.list(ctx, params, ListFilter{UserID: &userID})
}

// ListAll returns every order matching filter, newest first.
func (r *Repository) ListAll(ctx context.Context, params pagination.Params, filter ListFilter) (pagination.Page[models.Order], error) {
	return r.list(ctx, params, filter)
}

func (r *Repository) list(ctx context.Context, params pagination.Params, filter ListFilter) (pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if cursor != nil {
		at := cursor.CreatedAt.UTC()
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", at, at, cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return pagination.Page[models.Order]{}, err
	}

	items, more := pagination.Trim(rows, params.Limit)
	page := pagination.Page[models.Order]{Items: items}
	if more {
		last := items[len(items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// ErrStateChanged reports that an order left the state a guarded update
// expected before the update ran.
var ErrStateChanged = errors.New("order state changed")

// State is the status pair a guarded update requires.
type State struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
}

// StateOf returns the current state of order.
func StateOf(order *models.Order) State {
	return State{Status: order.Status, PaymentStatus: order.PaymentStatus}
}

// TransitionFields applies updates only while the order is still in from.
// Concurrent writers racing on the same order see ErrStateChanged.
func (r *Repository) TransitionFields(ctx context.Context, id uuid.UUID, from State, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, from.Status, from.PaymentStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}
