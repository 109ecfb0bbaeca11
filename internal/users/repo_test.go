package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/db"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func TestCreateAndFind(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Name: "Meera", Email: " Meera@Example.com ", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "meera@example.com", created.Email)
	assert.Equal(t, enums.UserRoleCustomer, created.Role)

	byEmail, err := repo.FindByEmail(ctx, "MEERA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meera", byID.Name)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))
	byID, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, byID.LastLoginAt.Equal(at))
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Name: "A", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Name: "B", Email: "A@example.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestFindByEmailMissing(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
