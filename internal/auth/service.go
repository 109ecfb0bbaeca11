package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/artcart-backend/internal/otp"
	"github.com/angelmondragon/artcart-backend/internal/users"
	pkgAuth "github.com/angelmondragon/artcart-backend/pkg/auth"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/db"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	VerifyRegistration(ctx context.Context, req VerifyRequest) (*LoginResponse, error)
	ResendOTP(ctx context.Context, req ResendRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	OTP            otp.Service
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	OTPConfig      config.OTPConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users  userRepository
	otp    otp.Service
	jwtCfg config.JWTConfig
	pwdCfg config.PasswordConfig
	otpTTL time.Duration
	logg   *logger.Logger
	now    func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.OTP == nil {
		return nil, fmt.Errorf("otp service is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:  params.UserRepo,
		otp:    params.OTP,
		jwtCfg: params.JWTConfig,
		pwdCfg: params.PasswordConfig,
		otpTTL: params.OTPConfig.TTL,
		logg:   params.Logger,
		now:    now,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	hash, err := security.HashPassword(req.Password, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}

	pending := &otp.PendingRegistration{Name: name, Phone: trimmedPtr(req.Phone), PasswordHash: hash}
	if err := s.otp.Issue(ctx, email, pending); err != nil {
		return nil, err
	}
	return s.pendingResponse(email), nil
}

func (s *service) VerifyRegistration(ctx context.Context, req VerifyRequest) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)
	entry, err := s.otp.Verify(ctx, email, req.Code)
	if err != nil {
		return nil, err
	}
	if entry.Pending == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no registration pending for this email")
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         entry.Pending.Name,
		Email:        email,
		Phone:        entry.Pending.Phone,
		PasswordHash: entry.Pending.PasswordHash,
		Role:         enums.UserRoleCustomer,
		VerifiedAt:   &now,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		// keep the registration verifiable so a retry does not need a new code
		if restoreErr := s.otp.Restore(ctx, email, entry); restoreErr != nil {
			s.logg.Error(s.logg.WithField(ctx, "email", email), "failed to restore otp after user creation error", restoreErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")

	return s.issueToken(ctx, user)
}

func (s *service) ResendOTP(ctx context.Context, req ResendRequest) (*RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	pending, err := s.otp.Pending(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no registration pending for this email")
	}
	if err := s.otp.Issue(ctx, email, pending); err != nil {
		return nil, err
	}
	return s.pendingResponse(email), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issueToken(ctx, user)
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := normalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || user.VerifiedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) issueToken(ctx context.Context, user *models.User) (*LoginResponse, error) {
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtCfg.ExpirationMinutes * 60,
		User:        users.FromModel(user),
	}, nil
}

func (s *service) pendingResponse(email string) *RegisterResponse {
	return &RegisterResponse{Email: email, OTPExpiresInSec: int(s.otpTTL.Seconds())}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
