package auth

import (
	"context"
	"net/http"

	"github.com/angelmondragon/artcart-backend/api/responses"
	"github.com/angelmondragon/artcart-backend/api/validators"
	authsvc "github.com/angelmondragon/artcart-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
)

// Register starts a customer signup and emails the verification code.
func Register(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusAccepted, func(ctx context.Context, req authsvc.RegisterRequest) (any, error) {
		return svc.Register(ctx, req)
	})
}

// Verify completes a signup with the emailed code and returns a token.
func Verify(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusCreated, func(ctx context.Context, req authsvc.VerifyRequest) (any, error) {
		return svc.VerifyRegistration(ctx, req)
	})
}

// Resend issues a fresh verification code for a pending signup.
func Resend(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusAccepted, func(ctx context.Context, req authsvc.ResendRequest) (any, error) {
		return svc.ResendOTP(ctx, req)
	})
}

// Login exchanges credentials for an access token.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, http.StatusOK, func(ctx context.Context, req authsvc.LoginRequest) (any, error) {
		return svc.Login(ctx, req)
	})
}

func handle[T any](svc authsvc.Service, logg *logger.Logger, status int, call func(context.Context, T) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req T
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := call(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, resp)
	}
}
