package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	cartdto "github.com/angelmondragon/artcart-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/artcart-backend/api/middleware"
	cartsvc "github.com/angelmondragon/artcart-backend/internal/cart"
	"github.com/angelmondragon/artcart-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
)

type stubCartService struct {
	summary      pricing.Summary
	err          error
	lastSession  string
	lastAdd      cartsvc.AddItemInput
	lastLineID   string
	lastQuantity int
	cleared      bool
}

func (s *stubCartService) AddItem(_ context.Context, sessionID string, input cartsvc.AddItemInput) (pricing.Summary, error) {
	s.lastSession = sessionID
	s.lastAdd = input
	return s.summary, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, sessionID, lineID string, quantity int) (pricing.Summary, error) {
	s.lastSession = sessionID
	s.lastLineID = lineID
	s.lastQuantity = quantity
	return s.summary, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, sessionID, lineID string) (pricing.Summary, error) {
	s.lastSession = sessionID
	s.lastLineID = lineID
	return s.summary, s.err
}

func (s *stubCartService) Summary(_ context.Context, sessionID string) (pricing.Summary, error) {
	s.lastSession = sessionID
	return s.summary, s.err
}

func (s *stubCartService) Clear(_ context.Context, sessionID string) error {
	s.lastSession = sessionID
	s.cleared = true
	return s.err
}

func sampleSummary() pricing.Summary {
	d := decimal.RequireFromString
	return pricing.Summary{
		Lines: []pricing.Line{{
			ID:                 "print-1|size=a4",
			SKU:                "PRINT-1",
			Name:               "Monsoon Print",
			Quantity:           2,
			Options:            pricing.Options{"Size": "A4"},
			PriceBeforeOptions: d("100"),
			Surcharge:          d("20"),
			GSTPercentage:      d("18"),
			LinePricing: pricing.LinePricing{
				UnitPriceBeforeGST: d("120"),
				LineTotalBeforeGST: d("240"),
				GSTAmount:          d("43.2"),
				LineTotal:          d("283.2"),
				UnitGST:            d("21.6"),
				UnitTotal:          d("141.6"),
			},
		}},
		Subtotal:       d("240"),
		GSTTotal:       d("43.2"),
		LinesTotal:     d("283.2"),
		ShippingCharge: d("50"),
		GrandTotal:     d("333.2"),
		ItemCount:      2,
	}
}

func withSession(req *http.Request, session string) *http.Request {
	return req.WithContext(middleware.WithCartSession(req.Context(), session))
}

func withLineID(req *http.Request, lineID string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("lineId", lineID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCartFetchRendersMoneyStrings(t *testing.T) {
	svc := &stubCartService{summary: sampleSummary()}
	req := withSession(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "sess-1")
	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartdto.CartSummary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.GrandTotal != "333.20" || envelope.Data.ShippingCharge != "50.00" {
		t.Fatalf("unexpected totals %+v", envelope.Data)
	}
	if len(envelope.Data.Lines) != 1 || envelope.Data.Lines[0].UnitTotal != "141.60" {
		t.Fatalf("unexpected lines %+v", envelope.Data.Lines)
	}
	if svc.lastSession != "sess-1" {
		t.Fatalf("expected session to be forwarded, got %q", svc.lastSession)
	}
}

func TestCartFetchRequiresSession(t *testing.T) {
	resp := httptest.NewRecorder()
	CartFetch(&stubCartService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCartService{summary: sampleSummary()}
	body := `{"sku":" PRINT-1 ","quantity":2,"options":{"Size":"A4"}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "sess-1")
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastAdd.SKU != "PRINT-1" || svc.lastAdd.Quantity != 2 || svc.lastAdd.Options["Size"] != "A4" {
		t.Fatalf("unexpected input %+v", svc.lastAdd)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"sku":"PRINT-1","quantity":0}`)), "sess-1")
	resp := httptest.NewRecorder()
	CartAddItem(&stubCartService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemMapsOutOfStock(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeOutOfStock, "only 1 left")}
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"sku":"PRINT-1","quantity":3}`)), "sess-1")
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCartUpdateItemAllowsZero(t *testing.T) {
	svc := &stubCartService{summary: pricing.EmptySummary()}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/print-1", strings.NewReader(`{"quantity":0}`))
	req = withSession(withLineID(req, "print-1"), "sess-1")
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastLineID != "print-1" || svc.lastQuantity != 0 {
		t.Fatalf("unexpected update line=%q qty=%d", svc.lastLineID, svc.lastQuantity)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	svc := &stubCartService{summary: pricing.EmptySummary()}
	req := withSession(withLineID(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/print-1", nil), "print-1"), "sess-1")
	resp := httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.lastLineID != "print-1" {
		t.Fatalf("unexpected remove result code=%d line=%q", resp.Code, svc.lastLineID)
	}

	resp = httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), "sess-1"))
	if resp.Code != http.StatusNoContent || !svc.cleared {
		t.Fatalf("expected cart cleared, code=%d", resp.Code)
	}
}
