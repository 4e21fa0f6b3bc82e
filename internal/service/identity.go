package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/domain"
	"tasker/internal/logger"
	"tasker/internal/metrics"
	"tasker/internal/repository"
	"tasker/internal/validation"

	"github.com/google/uuid"
)

const (
	// DefaultMaxFailures failed sign-ins lock an email for the window.
	DefaultMaxFailures = 5
	DefaultLockWindow  = 15 * time.Minute
)

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Identity is the local identity provider. Its errors are *apperr.Error
// values carrying provider codes.
type Identity struct {
	users       UserRepo
	hasher      *PasswordHasher
	attempts    AttemptCounter
	maxFailures int64
	log         *slog.Logger
}

func NewIdentity(users UserRepo, hasher *PasswordHasher, attempts AttemptCounter) *Identity {
	if hasher == nil {
		hasher = NewPasswordHasher(DefaultBcryptCost)
	}
	if attempts == nil {
		attempts = NewMemoryAttempts(DefaultLockWindow)
	}
	return &Identity{
		users:       users,
		hasher:      hasher,
		attempts:    attempts,
		maxFailures: DefaultMaxFailures,
		log:         logger.With("component", "identity"),
	}
}

// SignUp creates an account.
func (s *Identity) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	u, err := s.signUp(ctx, name, email, password)
	metrics.AuthAttempts.WithLabelValues("sign_up", result(err)).Inc()
	return u, err
}

func (s *Identity) signUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validation.DisplayName(name); err != nil {
		return nil, err
	}
	if err := validation.Email(email); err != nil {
		return nil, apperr.New(apperr.CodeInvalidEmail, err.Error())
	}
	if err := validation.Password(password); err != nil {
		return nil, apperr.New(apperr.CodeWeakPassword, err.Error())
	}
	if len(password) > maxPasswordBytes {
		return nil, apperr.New(apperr.CodeWeakPassword, "password exceeds 72 bytes")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err)
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.CodeEmailAlreadyInUse, email)
		}
		s.log.Error("create user failed", "error", err)
		return nil, apperr.Wrap(apperr.CodeInternal, err)
	}
	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// SignIn checks credentials. Repeated failures for one email are refused
// with auth/too-many-requests until the window passes.
func (s *Identity) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.signIn(ctx, email, password)
	metrics.AuthAttempts.WithLabelValues("sign_in", result(err)).Inc()
	return u, err
}

func (s *Identity) signIn(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Email(email); err != nil {
		return nil, apperr.New(apperr.CodeInvalidEmail, err.Error())
	}

	if n, err := s.attempts.Count(ctx, email); err != nil {
		s.log.Warn("attempt counter unavailable", "error", err)
	} else if n >= s.maxFailures {
		return nil, apperr.New(apperr.CodeTooManyRequests, "")
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.fail(ctx, email)
		return nil, apperr.New(apperr.CodeUserNotFound, "")
	case err != nil:
		s.log.Error("load user failed", "error", err)
		return nil, apperr.Wrap(apperr.CodeInternal, err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.fail(ctx, email)
		return nil, apperr.New(apperr.CodeWrongPassword, "")
	}
	if u.Disabled {
		return nil, apperr.New(apperr.CodeUserDisabled, "")
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		s.log.Warn("attempt counter reset failed", "error", err)
	}
	return u, nil
}

func (s *Identity) fail(ctx context.Context, email string) {
	if _, err := s.attempts.Fail(ctx, email); err != nil {
		s.log.Warn("attempt counter unavailable", "error", err)
	}
}

// User looks up an account by id.
func (s *Identity) User(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil, apperr.New(apperr.CodeUserNotFound, "")
	case err != nil:
		return nil, apperr.Wrap(apperr.CodeInternal, err)
	}
	return u, nil
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperr.CodeOf(err); code != "" {
		return string(code)
	}
	return "invalid"
}
