package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

const tokenTypeBearer = "Bearer"

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type passwordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
	CompareDummy(plain string)
}

// AuthService provides the login, refresh and logout use cases.
type AuthService struct {
	users     authUserRepository
	signer    *TokenSigner
	tokens    *RefreshTokenStore
	resolver  *PermissionResolver
	hasher    passwordHasher
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, signer *TokenSigner, tokens *RefreshTokenStore, resolver *PermissionResolver, hasher passwordHasher, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:     users,
		signer:    signer,
		tokens:    tokens,
		resolver:  resolver,
		hasher:    hasher,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Login authenticates by email and password and returns an access and a
// refresh token. Any previous refresh token of the identity stops working.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.CompareDummy(req.Password)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Unavailable(err, "failed to fetch user")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, appErrors.ErrInvalidCredentials
	}

	principal, err := s.resolver.Resolve(ctx, user.ID)
	if err != nil {
		return nil, s.sessionFailure(err, appErrors.ErrInvalidCredentials)
	}

	access, err := s.signer.IssueAccess(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	refresh, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.resolver.Pin(ctx, principal, access.ID, access.ExpiresAt)

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	if err := s.recordSession(ctx, user.ID, models.AuditActionLogin); err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.signer.AccessTTL().Seconds()),
		User:         userInfo(user, principal),
	}, nil
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "refresh token is required")
	}

	row, err := s.tokens.Lookup(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, invalidRefreshToken()
		}
		return nil, err
	}

	verified, err := s.signer.Verify(req.RefreshToken, TokenRefresh)
	if err != nil || verified.Subject != row.UserID {
		return nil, invalidRefreshToken()
	}

	principal, err := s.resolver.Resolve(ctx, row.UserID)
	if err != nil {
		return nil, s.sessionFailure(err, invalidRefreshToken())
	}

	access, err := s.signer.IssueAccess(row.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.resolver.Pin(ctx, principal, access.ID, access.ExpiresAt)

	if err := s.recordSession(ctx, row.UserID, models.AuditActionRefresh); err != nil {
		return nil, err
	}

	return &models.RefreshTokenResponse{
		AccessToken: access.Token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(s.signer.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes a refresh token. Unknown tokens are accepted.
func (s *AuthService) Logout(ctx context.Context, req models.LogoutRequest) error {
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "refresh token is required")
	}

	var actorID string
	if s.config.AuditSessionEvents {
		if row, err := s.tokens.Lookup(ctx, req.RefreshToken); err == nil {
			actorID = row.UserID
		}
	}

	if err := s.tokens.Revoke(ctx, req.RefreshToken); err != nil {
		return err
	}
	if actorID != "" {
		return s.recordSession(ctx, actorID, models.AuditActionLogout)
	}
	return nil
}

// Me returns the profile of the authenticated principal.
func (s *AuthService) Me(ctx context.Context, principal *models.Principal) (*models.UserInfo, error) {
	if principal == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, invalidTokenMessage)
		}
		return nil, appErrors.Unavailable(err, "failed to load user")
	}
	info := userInfo(user, principal)
	return &info, nil
}

func (s *AuthService) recordSession(ctx context.Context, userID, action string) error {
	if !s.config.AuditSessionEvents {
		return nil
	}
	_, err := s.audit.Record(ctx, models.AuditEntry{
		ActorID:  userID,
		Action:   action,
		Entity:   models.AuditEntitySession,
		EntityID: userID,
	})
	return err
}

// sessionFailure maps resolver failures during login and refresh. A missing
// role stays Forbidden; every other identity problem becomes fallback.
func (s *AuthService) sessionFailure(err, fallback error) error {
	var failure *AuthFailure
	if !errors.As(err, &failure) {
		return err
	}
	s.logger.Debug("session rejected", zap.String("reason", string(failure.Reason)))
	if failure.Reason == ReasonMissingRole {
		return failure.Public()
	}
	return fallback
}

func invalidRefreshToken() error {
	return appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired refresh token")
}

func userInfo(user *models.User, principal *models.Principal) models.UserInfo {
	info := models.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if principal != nil {
		info.Role = principal.RoleName
		info.Permissions = principal.Permissions.Keys()
	}
	return info
}
