package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "github.com/angelmondragon/artcart-backend/internal/auth"
	"github.com/angelmondragon/artcart-backend/internal/users"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
)

type stubAuthService struct {
	lastRegister authsvc.RegisterRequest
	lastVerify   authsvc.VerifyRequest
	loginErr     error
}

func (s *stubAuthService) Register(_ context.Context, req authsvc.RegisterRequest) (*authsvc.RegisterResponse, error) {
	s.lastRegister = req
	return &authsvc.RegisterResponse{Email: req.Email, OTPExpiresInSec: 600}, nil
}

func (s *stubAuthService) VerifyRegistration(_ context.Context, req authsvc.VerifyRequest) (*authsvc.LoginResponse, error) {
	s.lastVerify = req
	return &authsvc.LoginResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 3600, User: &users.UserDTO{Email: req.Email}}, nil
}

func (s *stubAuthService) ResendOTP(_ context.Context, req authsvc.ResendRequest) (*authsvc.RegisterResponse, error) {
	return &authsvc.RegisterResponse{Email: req.Email, OTPExpiresInSec: 600}, nil
}

func (s *stubAuthService) Login(_ context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &authsvc.LoginResponse{AccessToken: "tok", TokenType: "Bearer"}, nil
}

func TestRegisterAccepted(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"name":"Meera Rao","email":"meera@example.com","password":"longenough"}`
	resp := httptest.NewRecorder()
	Register(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastRegister.Email != "meera@example.com" {
		t.Fatalf("unexpected request %+v", svc.lastRegister)
	}
	var envelope struct {
		Data authsvc.RegisterResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.OTPExpiresInSec != 600 {
		t.Fatalf("unexpected response %+v", envelope.Data)
	}
}

func TestRegisterValidatesPassword(t *testing.T) {
	body := `{"name":"Meera","email":"meera@example.com","password":"short"}`
	resp := httptest.NewRecorder()
	Register(&stubAuthService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyCreated(t *testing.T) {
	svc := &stubAuthService{}
	resp := httptest.NewRecorder()
	Verify(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", strings.NewReader(`{"email":"meera@example.com","code":"123456"}`)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastVerify.Code != "123456" {
		t.Fatalf("unexpected verify request %+v", svc.lastVerify)
	}
}

func TestVerifyRejectsNonNumericCode(t *testing.T) {
	resp := httptest.NewRecorder()
	Verify(&stubAuthService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", strings.NewReader(`{"email":"meera@example.com","code":"12ab56"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLoginUnauthorized(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	resp := httptest.NewRecorder()
	Login(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"meera@example.com","password":"x"}`)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
