package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/revocation"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/validation"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	msgInvalidCredentials  = "Invalid email or password"
	msgRefreshRequired     = "Refresh token is required"
	msgInvalidRefresh      = "Invalid refresh token"
	msgRefreshNotFound     = "Refresh token does not exist"
	msgUserNotFound        = "User not found"
	msgAccessTokenRequired = "Access token is required"
	msgInvalidAccessToken  = "Invalid access token"
)

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	NationalIDTaken(ctx context.Context, nationalID string) (bool, error)
	CreateUser(ctx context.Context, u *models.User, authorities ...string) error
	GrantRole(ctx context.Context, u *models.User, authority string) error
}

type AuthService struct {
	Users      UserStore
	Codec      *tokens.Codec
	Revocation *revocation.Store
	Events     events.Publisher
}

type Session struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func NewAuthService(users UserStore, codec *tokens.Codec, rev *revocation.Store, pub events.Publisher) *AuthService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &AuthService{Users: users, Codec: codec, Revocation: rev, Events: pub}
}

func (s *AuthService) Register(ctx context.Context, in transport.RegisterRequest) (*transport.UserView, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	user, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		logFailure(l, "register_error", err)
		return nil, err
	}

	s.publish(ctx, l, events.TopicUsers, user.Email, events.Event{Type: "user_registered", Subject: user.Email, ID: user.ID})
	l.Info("register_successful", "user_id", user.ID)

	view := ToUserView(user)
	return &view, nil
}

func (s *AuthService) createUser(ctx context.Context, in transport.RegisterRequest, authorities ...string) (*models.User, error) {
	if msgs := validation.Register(in); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	taken, err := s.Users.EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("Email already in use")
	}

	taken, err = s.Users.NationalIDTaken(ctx, in.NationalID)
	if err != nil {
		return nil, fmt.Errorf("check national id: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("National ID already in use")
	}

	birth, err := time.Parse(dateLayout, in.BirthDate)
	if err != nil {
		return nil, apperr.Validation("Birth date must be a valid date (YYYY-MM-DD)")
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        in.Email,
		PasswordHash: pwHash,
		NationalID:   in.NationalID,
		BirthDate:    birth,
	}
	if err := s.Users.CreateUser(ctx, user, authorities...); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Email or national ID already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// EnsureAdmin registers an administrator, or grants the admin role when the email already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, in transport.RegisterRequest) (*transport.UserView, error) {
	l := logging.FromContext(ctx).With("svc", "auth.ensure_admin")

	existing, err := s.Users.FindUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if err := s.Users.GrantRole(ctx, existing, models.RoleAdmin); err != nil {
			return nil, fmt.Errorf("grant admin: %w", err)
		}
		if !existing.HasRole(models.RoleAdmin) {
			existing.Roles = append(existing.Roles, models.Role{Authority: models.RoleAdmin})
		}
		l.Info("admin_granted", "user_id", existing.ID)
		view := ToUserView(existing)
		return &view, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	user, err := s.createUser(ctx, in, models.RoleUser, models.RoleAdmin)
	if err != nil {
		logFailure(l, "create_admin_error", err)
		return nil, err
	}
	l.Info("admin_created", "user_id", user.ID)
	view := ToUserView(user)
	return &view, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if msgs := validation.Login(transport.LoginRequest{Email: email, Password: password}); len(msgs) > 0 {
		l.Warn("login_failed", "status", 400, "reason", "invalid input")
		return nil, apperr.Validation(msgs...)
	}

	user, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, apperr.Authentication(msgInvalidCredentials)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, apperr.Authentication(msgInvalidCredentials)
	}

	accessToken, err := s.Codec.IssueAccessToken(user.Email, user.Authorities())
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	refreshToken, err := s.Codec.IssueRefreshToken(user.Email)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	claims, err := s.Codec.Decode(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.Revocation.RecordRefreshToken(ctx, claims.ID, refreshToken, claims.Remaining(s.Codec.Now())); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot record refresh token", "error", err)
		return nil, err
	}

	s.publish(ctx, l, events.TopicUsers, user.Email, events.Event{Type: "user_logged_in", Subject: user.Email, ID: user.ID})
	l.Info("login_successful", "user_id", user.ID)

	return &Session{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh issues a new access token carrying the user's current roles.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	_, user, err := s.resolveRefreshToken(ctx, refreshToken)
	if err != nil {
		logFailure(l, "refresh_failed", err)
		return "", err
	}

	accessToken, err := s.Codec.IssueAccessToken(user.Email, user.Authorities())
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return "", err
	}
	l.Info("refresh_successful", "user_id", user.ID)
	return accessToken, nil
}

// Logout revokes the refresh token and blacklists the access token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, user, err := s.resolveRefreshToken(ctx, refreshToken)
	if err != nil {
		logFailure(l, "logout_failed", err)
		return err
	}
	if strings.TrimSpace(accessToken) == "" {
		l.Warn("logout_failed", "status", 401, "reason", "no access token")
		return apperr.Authentication(msgAccessTokenRequired)
	}
	access, err := s.Codec.Decode(accessToken)
	if err != nil || !access.IsAccess() {
		l.Warn("logout_failed", "status", 401, "reason", "malformed access token")
		return apperr.Authentication(msgInvalidAccessToken)
	}

	if err := s.Revocation.RevokeRefreshToken(ctx, claims.ID); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return err
	}
	if err := s.Revocation.BlacklistAccessToken(ctx, access.ID, accessToken, access.Remaining(s.Codec.Now())); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot blacklist access token", "error", err)
		return err
	}

	s.publish(ctx, l, events.TopicUsers, user.Email, events.Event{Type: "user_logged_out", Subject: user.Email, ID: user.ID})
	l.Info("logout_successful", "user_id", user.ID)
	return nil
}

func (s *AuthService) resolveRefreshToken(ctx context.Context, token string) (*tokens.Claims, *models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil, apperr.Authentication(msgRefreshRequired)
	}
	if !s.Codec.Valid(token) {
		return nil, nil, apperr.Authentication(msgInvalidRefresh)
	}
	claims, err := s.Codec.Decode(token)
	if err != nil || !claims.IsRefresh() {
		return nil, nil, apperr.Authentication(msgInvalidRefresh)
	}

	live, err := s.Revocation.RefreshTokenIsLive(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if !live {
		return nil, nil, apperr.Authentication(msgRefreshNotFound)
	}

	user, err := s.Users.FindUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Authentication(msgUserNotFound)
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	return claims, user, nil
}

func (s *AuthService) publish(ctx context.Context, l *slog.Logger, topic, key string, ev events.Event) {
	publish(ctx, l, s.Events, topic, key, ev)
}
