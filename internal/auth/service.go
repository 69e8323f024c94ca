package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rfid-attendance/attendance/internal/platform/password"
	"github.com/rfid-attendance/attendance/internal/shared"
	"github.com/rfid-attendance/attendance/internal/users"
)

// UserFinder looks up accounts by email or id.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
	Get(ctx context.Context, id int64) (users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	users    UserFinder
	hasher   password.Hasher
	sessions SessionStore
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(finder UserFinder, hasher password.Hasher, sessions SessionStore) *Service {
	return &Service{users: finder, hasher: hasher, sessions: sessions, now: time.Now}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (users.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if !s.hasher.Verify(user.PasswordHash, plain) {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// CurrentUser resolves the user a session belongs to.
func (s *Service) CurrentUser(ctx context.Context, id int64) (users.User, error) {
	return s.users.Get(ctx, id)
}

// RegisterSession persists the session metadata.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, ttl time.Duration, ip, ua string) error {
	if s.sessions == nil {
		return nil
	}
	now := s.now().UTC()
	return s.sessions.Create(ctx, SessionRecord{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		IP:        ip,
		UserAgent: ua,
	})
}

// RemoveSession deletes a session record.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}

// PurgeExpired deletes session records that expired before now.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.sessions == nil {
		return 0, nil
	}
	return s.sessions.DeleteExpired(ctx, s.now().UTC())
}
