package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miapp/shop/internal/hash"
	"github.com/miapp/shop/internal/logging"
	"github.com/miapp/shop/internal/models"
	"github.com/miapp/shop/internal/repo"
	"github.com/miapp/shop/internal/tokens"
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	Events    Publisher
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	UserID    uuid.UUID
	Name      string
	Email     string
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (uuid.UUID, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if name == "" || email == "" || password == "" {
		return uuid.Nil, fmt.Errorf("name, email and password are required: %w", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return uuid.Nil, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			l.Warn("register_conflict", "email", email)
			return uuid.Nil, fmt.Errorf("user already exists: %w", ErrConflict)
		}
		l.Error("register_error", "error", err)
		return uuid.Nil, err
	}

	s.publish(ctx, "user_events", user.ID.String(), map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return user.ID, nil
}

// Login resolves the user and verifies the password. An unknown email
// and a wrong password surface the same ErrInvalidCredentials, so the
// response never reveals which check failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := tokens.NewSessionToken(user.ID.String(), user.Email, user.Name, s.JWTSecret, time.Now())
	if err != nil {
		l.Error("login_error", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	s.publish(ctx, "user_events", user.ID.String(), map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID,
	})

	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
	}, nil
}

// Authorize is the gate in front of every identity-bound operation.
// Signature and expiry are verified here; a client's local expiry
// judgment is advisory only.
func (s *AuthService) Authorize(ctx context.Context, tokenStr string) (*tokens.SessionClaims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token: %w", ErrInvalidToken)
	}

	claims, err := tokens.SessionClaimsFromToken(tokenStr, s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidToken)
	}
	return claims, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, topic, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "topic", topic, "error", err)
	}
}
