package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/angelmondragon/artcart-backend/internal/pricing"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/metrics"
)

const lockStripes = 64

type productReader interface {
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
}

// Service exposes session cart operations. Every mutation returns the fresh
// summary so handlers can render it directly.
type Service interface {
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (pricing.Summary, error)
	UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (pricing.Summary, error)
	RemoveItem(ctx context.Context, sessionID, lineID string) (pricing.Summary, error)
	Summary(ctx context.Context, sessionID string) (pricing.Summary, error)
	Clear(ctx context.Context, sessionID string) error
}

// AddItemInput is a product configuration to put in the cart.
type AddItemInput struct {
	SKU      string
	Quantity int
	Options  pricing.Options
}

// Options tunes cart limits.
type Options struct {
	MaxLines int
}

type service struct {
	store    Store
	products productReader
	engine   *pricing.Engine
	metrics  *metrics.ShopMetrics
	logg     *logger.Logger
	maxLines int
	locks    [lockStripes]sync.Mutex
}

// NewService builds a cart service backed by the provided stack.
func NewService(store Store, products productReader, engine *pricing.Engine, m *metrics.ShopMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &service{
		store:    store,
		products: products,
		engine:   engine,
		metrics:  m,
		logg:     logg,
		maxLines: opts.MaxLines,
	}, nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (pricing.Summary, error) {
	if err := requireSession(sessionID); err != nil {
		return pricing.Summary{}, err
	}
	if input.Quantity <= 0 {
		return pricing.Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.GetBySKU(ctx, input.SKU)
	if err != nil {
		return pricing.Summary{}, err
	}
	if !product.IsActive {
		return pricing.Summary{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not available").
			WithDetails(map[string]any{"sku": product.SKU})
	}

	unlock := s.lock(sessionID)
	defer unlock()

	entries, err := s.load(ctx, sessionID)
	if err != nil {
		return pricing.Summary{}, err
	}

	options := cleanOptions(input.Options)
	lineID := pricing.CartID(product.SKU, options)

	line, exists := decodeLine(entries[lineID])
	if exists {
		line.Quantity += input.Quantity
	} else {
		if s.maxLines > 0 && len(entries) >= s.maxLines {
			return pricing.Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is full").
				WithDetails(map[string]any{"max_lines": s.maxLines})
		}
		surcharge := s.engine.ResolveSurcharge(ctx, pricing.OptionTable(product.OptionGroups), options)
		line = pricing.StoredLine{
			SKU:                product.SKU,
			Quantity:           input.Quantity,
			PriceBeforeOptions: product.BasePrice,
			UnitPriceBeforeGST: product.BasePrice.Add(surcharge),
			GSTPercentage:      product.GSTPercentage,
			Options:            options,
			Name:               product.Name,
			Image:              product.ImageURL,
		}
	}

	if line.Quantity > product.Stock {
		return pricing.Summary{}, outOfStock(product, line.Quantity)
	}

	if err := setLine(entries, lineID, line); err != nil {
		return pricing.Summary{}, err
	}
	return s.persist(ctx, sessionID, entries)
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (pricing.Summary, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, lineID)
	}
	if err := requireSession(sessionID); err != nil {
		return pricing.Summary{}, err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	entries, err := s.load(ctx, sessionID)
	if err != nil {
		return pricing.Summary{}, err
	}
	line, ok := decodeLine(entries[lineID])
	if !ok {
		return pricing.Summary{}, lineNotFound(lineID)
	}

	product, err := s.products.GetBySKU(ctx, line.SKU)
	if err != nil {
		return pricing.Summary{}, err
	}
	if quantity > product.Stock {
		return pricing.Summary{}, outOfStock(product, quantity)
	}

	line.Quantity = quantity
	if err := setLine(entries, lineID, line); err != nil {
		return pricing.Summary{}, err
	}
	return s.persist(ctx, sessionID, entries)
}

func (s *service) RemoveItem(ctx context.Context, sessionID, lineID string) (pricing.Summary, error) {
	if err := requireSession(sessionID); err != nil {
		return pricing.Summary{}, err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	entries, err := s.load(ctx, sessionID)
	if err != nil {
		return pricing.Summary{}, err
	}
	if _, ok := entries[lineID]; !ok {
		return pricing.Summary{}, lineNotFound(lineID)
	}
	delete(entries, lineID)
	return s.persist(ctx, sessionID, entries)
}

func (s *service) Summary(ctx context.Context, sessionID string) (pricing.Summary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return pricing.EmptySummary(), nil
	}
	raw, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return pricing.Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.summarize(ctx, raw), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	unlock := s.lock(sessionID)
	defer unlock()
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) summarize(ctx context.Context, raw []byte) pricing.Summary {
	summary := s.engine.AggregateJSON(ctx, raw)
	s.metrics.IncCartSummary(summary.IsEmpty())
	for _, skipped := range summary.Skipped {
		s.metrics.IncLineSkipped(skipped.Reason.String())
	}
	return summary
}

// load decodes the stored container. A corrupt container is logged and
// treated as empty so the next write replaces it.
func (s *service) load(ctx context.Context, sessionID string) (map[string]json.RawMessage, error) {
	raw, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	entries := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		s.logg.Warn(s.logg.WithField(ctx, "raw", string(raw)), "resetting unreadable cart container")
		return map[string]json.RawMessage{}, nil
	}
	return entries, nil
}

func (s *service) persist(ctx context.Context, sessionID string, entries map[string]json.RawMessage) (pricing.Summary, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return pricing.Summary{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.store.Save(ctx, sessionID, raw); err != nil {
		return pricing.Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return s.summarize(ctx, raw), nil
}

func (s *service) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// decodeLine reports false for absent or unreadable entries; an unreadable
// entry is overwritten by the caller.
func decodeLine(raw json.RawMessage) (pricing.StoredLine, bool) {
	if len(raw) == 0 {
		return pricing.StoredLine{}, false
	}
	var line pricing.StoredLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return pricing.StoredLine{}, false
	}
	return line, true
}

func setLine(entries map[string]json.RawMessage, lineID string, line pricing.StoredLine) error {
	raw, err := json.Marshal(line)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart line")
	}
	entries[lineID] = raw
	return nil
}

func cleanOptions(in pricing.Options) pricing.Options {
	out := make(pricing.Options, len(in))
	for group, label := range in {
		group = strings.TrimSpace(group)
		label = strings.TrimSpace(label)
		if group == "" || label == "" {
			continue
		}
		out[group] = label
	}
	return out
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	return nil
}

func lineNotFound(lineID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").
		WithDetails(map[string]any{"line_id": lineID})
}

func outOfStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, "not enough stock").
		WithDetails(map[string]any{
			"sku":       product.SKU,
			"available": product.Stock,
			"requested": requested,
		})
}
