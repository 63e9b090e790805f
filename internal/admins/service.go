package admins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/pkg/auth"
	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/security"
)

// LoginResult carries the minted token and its expiry.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

// Service authenticates back-office users and provisions accounts.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, email, password string, role enums.Role) (*models.AdminUser, error)
}

type service struct {
	repo     Repository
	jwt      config.JWTConfig
	password config.PasswordConfig
	now      func() time.Time
}

// NewService builds the admin auth service.
func NewService(repo Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{repo: repo, jwt: jwtCfg, password: passwordCfg, now: time.Now}, nil
}

// Login verifies credentials and mints a role-bearing JWT. Unknown emails
// and bad passwords return the same error so the endpoint does not leak
// which accounts exist.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := auth.MintToken(s.jwt, now, auth.TokenPayload{
		UserID: user.ID,
		Role:   enums.Role(user.Role),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.jwt.Expiration()),
		Role:      user.Role,
	}, nil
}

// Register provisions a back-office account. Exposed outside prod only.
func (s *service) Register(ctx context.Context, email, password string, role enums.Role) (*models.AdminUser, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(password) < 12 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 12 characters")
	}
	if role != enums.RoleOrderManager && role != enums.RoleSuperAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be order_manager or super_admin")
	}

	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	created, err := s.repo.Create(ctx, &models.AdminUser{
		Email:        email,
		PasswordHash: hash,
		Role:         string(role),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin user")
	}
	return created, nil
}
