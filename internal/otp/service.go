package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/artcart-backend/internal/notifications"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/metrics"
	"github.com/angelmondragon/artcart-backend/pkg/security"
)

const (
	eventIssued   = "issued"
	eventVerified = "verified"
	eventMismatch = "mismatch"
	eventExpired  = "expired"
	eventLocked   = "locked"
	eventMissing  = "missing"
)

// Service issues and verifies one-time email codes.
type Service interface {
	Issue(ctx context.Context, email string, pending *PendingRegistration) error
	Verify(ctx context.Context, email, code string) (*Entry, error)
	// Pending returns the registration waiting on email, or nil.
	Pending(ctx context.Context, email string) (*PendingRegistration, error)
	// Restore puts back an entry consumed by Verify when the work it gated
	// could not be completed.
	Restore(ctx context.Context, email string, entry *Entry) error
}

type service struct {
	store    Store
	mailer   notifications.Mailer
	cfg      config.OTPConfig
	metrics  *metrics.ShopMetrics
	logg     *logger.Logger
	now      func() time.Time
	generate func(length int) (string, error)
}

// Option customises the service.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerator overrides the code generator.
func WithGenerator(fn func(length int) (string, error)) Option {
	return func(s *service) {
		if fn != nil {
			s.generate = fn
		}
	}
}

// NewService wires the otp dependencies.
func NewService(store Store, mailer notifications.Mailer, cfg config.OTPConfig, m *metrics.ShopMetrics, logg *logger.Logger, opts ...Option) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if cfg.Length <= 0 {
		cfg.Length = 6
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	svc := &service{
		store:    store,
		mailer:   mailer,
		cfg:      cfg,
		metrics:  m,
		logg:     logg,
		now:      time.Now,
		generate: security.GenerateNumericCode,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *service) Issue(ctx context.Context, email string, pending *PendingRegistration) error {
	email = normalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	code, err := s.generate(s.cfg.Length)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	entry := Entry{
		Code:      code,
		ExpiresAt: s.now().Add(s.cfg.TTL),
		Pending:   pending,
	}
	if err := s.store.Put(ctx, email, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	name := ""
	if pending != nil {
		name = pending.Name
	}
	if err := s.mailer.Send(ctx, notifications.OTPMessage(email, name, code, s.cfg.TTL)); err != nil {
		_ = s.store.Delete(ctx, email)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp email")
	}
	s.metrics.IncOTPEvent(eventIssued)
	s.logg.Info(s.logg.WithField(ctx, "email", email), "otp issued")
	return nil
}

func (s *service) Verify(ctx context.Context, email, code string) (*Entry, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and code required")
	}

	entry, err := s.store.Get(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	if entry == nil {
		s.metrics.IncOTPEvent(eventMissing)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no verification code pending for this email")
	}

	if !s.now().Before(entry.ExpiresAt) {
		s.purge(ctx, email)
		s.metrics.IncOTPEvent(eventExpired)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification code expired")
	}
	// the attempt is counted before the comparison so parallel guesses cannot
	// exceed the limit
	attempts, err := s.store.RecordAttempt(ctx, email, entry.ExpiresAt)
	if errors.Is(err, ErrNoEntry) {
		s.metrics.IncOTPEvent(eventMissing)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no verification code pending for this email")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record otp attempt")
	}
	if attempts > s.cfg.MaxAttempts {
		s.purge(ctx, email)
		s.metrics.IncOTPEvent(eventLocked)
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, request a new code")
	}

	if !security.EqualCodes(entry.Code, code) {
		s.metrics.IncOTPEvent(eventMismatch)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid verification code").
			WithDetails(map[string]any{"attempts_remaining": max(s.cfg.MaxAttempts-attempts, 0)})
	}

	if err := s.store.Delete(ctx, email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
	}
	s.metrics.IncOTPEvent(eventVerified)
	return entry, nil
}

func (s *service) Pending(ctx context.Context, email string) (*PendingRegistration, error) {
	entry, err := s.store.Get(ctx, normalizeEmail(email))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	if entry == nil {
		return nil, nil
	}
	return entry.Pending, nil
}

func (s *service) Restore(ctx context.Context, email string, entry *Entry) error {
	if entry == nil {
		return nil
	}
	if err := s.store.Put(ctx, normalizeEmail(email), *entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore otp")
	}
	return nil
}

func (s *service) purge(ctx context.Context, email string) {
	if err := s.store.Delete(ctx, email); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "email", email), "failed to purge otp entry")
	}
}
