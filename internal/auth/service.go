package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/dice-gateway/bape/pkg/auth"
	"github.com/dice-gateway/bape/pkg/config"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
	"github.com/dice-gateway/bape/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

type sessionManager interface {
	Create(ctx context.Context, sessionID string) error
	Revoke(ctx context.Context, sessionID string) error
}

type service struct {
	adminCfg config.AdminConfig
	jwtCfg   config.JWTConfig
	sessions sessionManager
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	AdminConfig    config.AdminConfig
	JWTConfig      config.JWTConfig
	SessionManager sessionManager
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if strings.TrimSpace(params.AdminConfig.PasswordHash) == "" {
		return nil, fmt.Errorf("admin password hash is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		adminCfg: params.AdminConfig,
		jwtCfg:   params.JWTConfig,
		sessions: params.SessionManager,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	ok, err := security.VerifyPassword(req.Password, s.adminCfg.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := time.Now().UTC()
	accessToken, jti, err := pkgAuth.MintAccessToken(s.jwtCfg, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.sessions.Create(ctx, jti); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	return &LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   now.Add(s.jwtCfg.AccessTokenTTL()),
	}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
