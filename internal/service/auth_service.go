package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type authRepository interface {
	Login(ctx context.Context, email, password string) (string, *models.Admin, error)
	Profile(ctx context.Context) (*models.Admin, error)
	UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*models.Admin, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error
}

type sessionStore interface {
	Get(ctx context.Context, key string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, key string) error
}

// AuthConfig defines configuration for session handling.
type AuthConfig struct {
	// SessionTTL applies when the backend token carries no readable expiry.
	SessionTTL time.Duration
}

// AuthService signs admins in against the backend and keeps a session
// snapshot keyed by the token hash.
type AuthService struct {
	repo      authRepository
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authRepository, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 12 * time.Hour
	}
	return &AuthService{repo: repo, sessions: sessions, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates against the backend and opens a session.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	token, admin, err := s.repo.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, classifyUpstream(err)
	}

	session := s.newSession(token, *admin)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}
	s.logger.Info("admin signed in", zap.String("admin_id", admin.ID), zap.String("role", string(admin.Role)))

	return &dto.LoginResponse{Token: token, Admin: session.Admin, ExpiresAt: session.ExpiresAt}, nil
}

// Logout drops the session. The backend token itself stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, session *models.Session) error {
	if session == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, session.Key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end session")
	}
	return nil
}

// ResolveSession returns the session for token. On a store miss the backend
// profile endpoint validates the token and the session is rebuilt.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token")
	}
	key := repository.SessionKey(token)
	session, err := s.sessions.Get(ctx, key)
	if err != nil {
		s.logger.Warn("session lookup failed", zap.Error(err))
	}
	if session != nil && s.now().Before(session.ExpiresAt) {
		session.Token = token
		return session, nil
	}

	admin, err := s.repo.Profile(repository.WithToken(ctx, token))
	if err != nil {
		return nil, classifyUpstream(err)
	}
	session = s.newSession(token, *admin)
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Warn("session store failed", zap.Error(err))
	}
	return session, nil
}

// Invalidate removes the session for token.
func (s *AuthService) Invalidate(ctx context.Context, token string) {
	if err := s.sessions.Delete(ctx, repository.SessionKey(token)); err != nil {
		s.logger.Warn("session delete failed", zap.Error(err))
	}
}

// Profile returns the caller's account.
func (s *AuthService) Profile(ctx context.Context) (*models.Admin, error) {
	admin, err := s.repo.Profile(ctx)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return admin, nil
}

// UpdateProfile edits the caller's account and refreshes the session identity.
func (s *AuthService) UpdateProfile(ctx context.Context, session *models.Session, req dto.UpdateProfileRequest) (*models.Admin, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	admin, err := s.repo.UpdateProfile(ctx, req)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	if session != nil && admin != nil {
		updated := *session
		updated.Admin = admin.Info()
		if err := s.sessions.Save(ctx, &updated); err != nil {
			s.logger.Warn("session refresh failed", zap.Error(err))
		}
	}
	return admin, nil
}

// ChangePassword updates the caller's password.
func (s *AuthService) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}
	if err := s.repo.ChangePassword(ctx, req); err != nil {
		return classifyUpstream(err)
	}
	return nil
}

func (s *AuthService) newSession(token string, admin models.Admin) *models.Session {
	return &models.Session{
		Token:     token,
		Key:       repository.SessionKey(token),
		Admin:     admin.Info(),
		ExpiresAt: tokenExpiry(token, s.now(), s.config.SessionTTL),
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend owns the key. Tokens without a usable exp get the fallback TTL.
func tokenExpiry(token string, now time.Time, fallback time.Duration) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.After(now) {
			return exp.Time
		}
	}
	return now.Add(fallback)
}
