package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/angelmondragon/artcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 1, 5, 23, 30, 0, 0, time.UTC)
	number, err := NewOrderNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AC-20260105-[A-HJ-NP-Z2-9]{6}$`), number)
}

func TestCreateAndFindWithAssociations(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(nil, time.Now(), item("B", 1), item("A", 2))
	order.Proof = &models.PaymentProof{StoragePath: "ac-1/x.png", ContentType: "image/png", SizeBytes: 10}
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "A", found.Items[0].LineID)
	require.NotNil(t, found.Proof)
	assert.Equal(t, "ac-1/x.png", found.Proof.StoragePath)
	assert.Equal(t, "333.20", found.GrandTotal.StringFixed(2))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestListByUserPaginates(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	other := uuid.New()
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newOrder(&userID, base.Add(time.Duration(i)*time.Minute), item("A", 1))))
	}
	require.NoError(t, repo.Create(ctx, newOrder(&other, base, item("A", 1))))

	first, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))

	second, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
	assert.True(t, second.Items[0].CreatedAt.Equal(base))

	_, err = repo.ListByUser(ctx, userID, pagination.Params{Cursor: "%%%"})
	assert.ErrorIs(t, err, pagination.ErrInvalidCursor)
}

func TestListAllFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	placed := newOrder(nil, time.Now(), item("A", 1))
	cancelled := newOrder(nil, time.Now(), item("A", 1))
	cancelled.Status = enums.OrderStatusCancelled
	require.NoError(t, repo.Create(ctx, placed))
	require.NoError(t, repo.Create(ctx, cancelled))

	status := enums.OrderStatusCancelled
	page, err := repo.ListAll(ctx, pagination.Params{}, ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, cancelled.ID, page.Items[0].ID)
}

func TestTransitionFieldsGuardsState(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	order := newOrder(nil, time.Now(), item("A", 1))
	require.NoError(t, repo.Create(ctx, order))
	loaded := StateOf(order)

	cancel := map[string]any{"status": enums.OrderStatusCancelled, "payment_status": enums.PaymentStatusRejected}
	require.NoError(t, repo.TransitionFields(ctx, order.ID, loaded, cancel))

	err := repo.TransitionFields(ctx, order.ID, loaded, cancel)
	assert.ErrorIs(t, err, ErrStateChanged)

	err = repo.TransitionFields(ctx, uuid.New(), loaded, map[string]any{"status": enums.OrderStatusShipped})
	assert.ErrorIs(t, err, ErrStateChanged)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, found.Status)
}
