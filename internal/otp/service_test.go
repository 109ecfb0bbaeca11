package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/artcart-backend/internal/notifications"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notifications.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notifications.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T, mailer notifications.Mailer) (Service, *clock, *MemoryStore) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(clk.now)
	svc, err := NewService(store, mailer, config.OTPConfig{Length: 6, TTL: 10 * time.Minute, MaxAttempts: 3}, nil, nil,
		WithClock(clk.now),
		WithGenerator(func(int) (string, error) { return "123456", nil }),
	)
	require.NoError(t, err)
	return svc, clk, store
}

func TestIssueStoresEntryAndEmailsCode(t *testing.T) {
	mailer := &recordingMailer{}
	svc, _, store := newTestService(t, mailer)
	ctx := context.Background()

	pending := &PendingRegistration{Name: "Meera", PasswordHash: "hash"}
	require.NoError(t, svc.Issue(ctx, " Meera@Example.com ", pending))

	entry, err := store.Get(ctx, "meera@example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "123456", entry.Code)
	assert.Equal(t, "Meera", entry.Pending.Name)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "meera@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "123456")
}

func TestIssueMailFailureDropsEntry(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc, _, store := newTestService(t, mailer)
	ctx := context.Background()

	err := svc.Issue(ctx, "a@example.com", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	entry, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestVerifySuccessConsumesEntry(t *testing.T) {
	svc, _, store := newTestService(t, &recordingMailer{})
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "a@example.com", &PendingRegistration{Name: "A"}))

	entry, err := svc.Verify(ctx, "A@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "A", entry.Pending.Name)

	stored, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, err = svc.Verify(ctx, "a@example.com", "123456")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, clk, store := newTestService(t, &recordingMailer{})
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "a@example.com", nil))

	clk.t = clk.t.Add(10 * time.Minute)
	_, err := svc.Verify(ctx, "a@example.com", "123456")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "expired")

	stored, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestVerifyLocksAfterMaxAttempts(t *testing.T) {
	svc, _, _ := newTestService(t, &recordingMailer{})
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "a@example.com", nil))

	for i := 0; i < 3; i++ {
		_, err := svc.Verify(ctx, "a@example.com", "000000")
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "attempt %d", i)
	}

	_, err := svc.Verify(ctx, "a@example.com", "123456")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))

	// the entry is gone, so even the right code no longer works
	_, err = svc.Verify(ctx, "a@example.com", "123456")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParallelWrongGuessesRespectAttemptLimit(t *testing.T) {
	svc, _, _ := newTestService(t, &recordingMailer{})
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "a@example.com", nil))

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		mismatches int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Verify(ctx, "a@example.com", "000000")
			typed := pkgerrors.As(err)
			if typed != nil && typed.Details() != nil {
				mu.Lock()
				mismatches++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, mismatches)
	_, err := svc.Verify(ctx, "a@example.com", "123456")
	assert.Error(t, err)
}

func TestVerifyMismatchReportsRemainingAttempts(t *testing.T) {
	svc, _, _ := newTestService(t, &recordingMailer{})
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "a@example.com", nil))

	_, err := svc.Verify(ctx, "a@example.com", "999999")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]any{"attempts_remaining": 2}, typed.Details())
}

func TestReissueReplacesPreviousCode(t *testing.T) {
	codes := []string{"111111", "222222"}
	clk := &clock{t: time.Now()}
	store := NewMemoryStore(clk.now)
	svc, err := NewService(store, &recordingMailer{}, config.OTPConfig{}, nil, nil,
		WithClock(clk.now),
		WithGenerator(func(int) (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "a@example.com", nil))
	require.NoError(t, svc.Issue(ctx, "a@example.com", nil))

	_, err = svc.Verify(ctx, "a@example.com", "111111")
	require.Error(t, err)
	_, err = svc.Verify(ctx, "a@example.com", "222222")
	require.NoError(t, err)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &recordingMailer{}, config.OTPConfig{}, nil, nil)
	require.Error(t, err)
	_, err = NewService(NewMemoryStore(nil), nil, config.OTPConfig{}, nil, nil)
	require.Error(t, err)
}
