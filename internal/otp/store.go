package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/redis"
)

// PendingRegistration holds the account details captured before the email is
// verified. The password is already hashed.
type PendingRegistration struct {
	Name         string  `json:"name"`
	Phone        *string `json:"phone,omitempty"`
	PasswordHash string  `json:"password_hash"`
}

// Entry is the outstanding code for one email address.
type Entry struct {
	Code      string               `json:"code"`
	ExpiresAt time.Time            `json:"expires_at"`
	Attempts  int                  `json:"attempts"`
	Pending   *PendingRegistration `json:"pending,omitempty"`
}

// ErrNoEntry reports that no code is pending for an email.
var ErrNoEntry = errors.New("otp entry not found")

// Store persists at most one entry per normalized email.
type Store interface {
	// Get returns nil when no entry exists.
	Get(ctx context.Context, email string) (*Entry, error)
	// Put replaces the entry and resets its attempt count.
	Put(ctx context.Context, email string, entry Entry) error
	Delete(ctx context.Context, email string) error
	// RecordAttempt atomically counts one verification attempt and returns
	// the running total. Concurrent callers never observe the same count.
	RecordAttempt(ctx context.Context, email string, expiresAt time.Time) (int, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryStore keeps entries in process and drops them once expired.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore builds a MemoryStore; now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: map[string]Entry{}, now: now}
}

func (s *MemoryStore) Get(_ context.Context, email string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email)
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	// expired entries linger for an hour so Verify can report expiry
	if s.now().After(entry.ExpiresAt.Add(time.Hour)) {
		delete(s.entries, key)
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryStore) Put(_ context.Context, email string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Attempts = 0
	s.entries[normalizeEmail(email)] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalizeEmail(email))
	return nil
}

func (s *MemoryStore) RecordAttempt(_ context.Context, email string, _ time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email)
	entry, ok := s.entries[key]
	if !ok {
		return 0, ErrNoEntry
	}
	entry.Attempts++
	s.entries[key] = entry
	return entry.Attempts, nil
}

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	OTPKey(email string) string
	OTPAttemptsKey(email string) string
}

// RedisStore stores entries as JSON under ac:otp:<email>. Attempts live in a
// separate INCR counter that outlasts Delete, so a purged code stays locked
// until a new one is issued.
type RedisStore struct {
	client kv
	grace  time.Duration
	now    func() time.Time
}

// NewRedisStore builds a RedisStore. Keys outlive the code by grace so an
// expired code is reported as expired rather than missing.
func NewRedisStore(client kv, grace time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, grace: grace, now: time.Now}, nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (*Entry, error) {
	raw, err := s.client.Get(ctx, s.client.OTPKey(email))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("decode otp entry: %w", err)
	}
	count, err := s.client.Get(ctx, s.client.OTPAttemptsKey(email))
	switch {
	case redis.IsNil(err):
		entry.Attempts = 0
	case err != nil:
		return nil, err
	default:
		if entry.Attempts, err = strconv.Atoi(count); err != nil {
			return nil, fmt.Errorf("decode otp attempts: %w", err)
		}
	}
	return &entry, nil
}

func (s *RedisStore) Put(ctx context.Context, email string, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode otp entry: %w", err)
	}
	if err := s.client.Set(ctx, s.client.OTPKey(email), string(payload), s.ttl(entry.ExpiresAt)); err != nil {
		return err
	}
	return s.client.Del(ctx, s.client.OTPAttemptsKey(email))
}

func (s *RedisStore) RecordAttempt(ctx context.Context, email string, expiresAt time.Time) (int, error) {
	count, err := s.client.IncrWithTTL(ctx, s.client.OTPAttemptsKey(email), s.ttl(expiresAt))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *RedisStore) ttl(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(s.now()) + s.grace
	if ttl <= 0 {
		ttl = time.Second
	}
	return ttl
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.client.OTPKey(email))
}
