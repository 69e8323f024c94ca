package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rfid-attendance/attendance/internal/platform/password"
	"github.com/rfid-attendance/attendance/internal/shared"
)

// Repository is the record store for users. Get, Update and Delete return
// ErrNotFound for unknown ids; Create and Update return ErrEmailTaken when
// the unique email index rejects the write.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, user User) (int64, error)
	Update(ctx context.Context, user User) error
	Delete(ctx context.Context, id int64) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier is told about newly created accounts.
type Notifier interface {
	UserCreated(ctx context.Context, user User) error
}

// OperationObserver counts lifecycle operations by outcome.
type OperationObserver interface {
	ObserveUserOperation(operation, outcome string)
}

// ServiceConfig carries optional collaborators; nil members are skipped.
type ServiceConfig struct {
	Rules    *Rules
	Audit    AuditRecorder
	Notifier Notifier
	Observer OperationObserver
	Logger   *slog.Logger
}

// Service implements the user record lifecycle.
type Service struct {
	repo      Repository
	hasher    password.Hasher
	rules     Rules
	validator formValidator
	audit     AuditRecorder
	notifier  Notifier
	observer  OperationObserver
	logger    *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, hasher password.Hasher, cfg ServiceConfig) *Service {
	rules := DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		hasher:    hasher,
		rules:     rules,
		validator: newFormValidator(),
		audit:     cfg.Audit,
		notifier:  cfg.Notifier,
		observer:  cfg.Observer,
		logger:    logger,
	}
}

// ListUsers returns all users in insertion order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// CreateForm describes the fields needed to create a user.
func (s *Service) CreateForm() Form {
	return Form{Fields: createFields()}
}

// CreateUser validates input, hashes the password and inserts the record.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (id int64, err error) {
	defer func() { s.observe("create", err) }()
	in.Name = normalizeName(in.Name)
	in.Email = normalizeEmail(in.Email)

	errs := s.validator.check(s.rules.Create, map[string]string{
		FieldName:                 in.Name,
		FieldEmail:                in.Email,
		FieldPassword:             in.Password,
		FieldPasswordConfirmation: in.PasswordConfirmation,
	})
	if err := s.checkEmailAvailable(ctx, errs, in.Email, 0); err != nil {
		return 0, err
	}
	if len(errs) > 0 {
		return 0, newValidationError(errs)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, fmt.Errorf("users: hash password: %w", err)
	}
	user := User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	id, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return 0, newValidationError(map[string]string{FieldEmail: MsgTaken})
		}
		return 0, err
	}
	user.ID = id

	s.recordAudit(ctx, "user.created", id, map[string]any{"email": user.Email})
	if s.notifier != nil {
		if err := s.notifier.UserCreated(ctx, user); err != nil {
			s.logger.Warn("notify user created", slog.Int64("user_id", id), slog.Any("error", err))
		}
	}
	return id, nil
}

// EditForm loads the user for editing without its password hash.
func (s *Service) EditForm(ctx context.Context, id int64) (Form, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return Form{}, err
	}
	user.PasswordHash = ""
	return Form{Fields: editFields(), User: &user}, nil
}

// UpdateUser applies name and email changes and, when a new password is
// supplied, replaces the stored hash.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (err error) {
	defer func() { s.observe("update", err) }()
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	in.Name = normalizeName(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Password == "" {
		in.PasswordConfirmation = ""
	}

	errs := s.validator.check(s.rules.Update, map[string]string{
		FieldName:                 in.Name,
		FieldEmail:                in.Email,
		FieldPassword:             in.Password,
		FieldPasswordConfirmation: in.PasswordConfirmation,
	})
	if err := s.checkEmailAvailable(ctx, errs, in.Email, id); err != nil {
		return err
	}
	if len(errs) > 0 {
		return newValidationError(errs)
	}

	changed := []string{}
	if user.Name != in.Name {
		changed = append(changed, FieldName)
	}
	if user.Email != in.Email {
		changed = append(changed, FieldEmail)
	}
	user.Name = in.Name
	user.Email = in.Email
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("users: hash password: %w", err)
		}
		user.PasswordHash = hash
		changed = append(changed, FieldPassword)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return newValidationError(map[string]string{FieldEmail: MsgTaken})
		}
		return err
	}
	s.recordAudit(ctx, "user.updated", id, map[string]any{"changed": changed})
	return nil
}

// DeleteUser removes the user permanently.
func (s *Service) DeleteUser(ctx context.Context, id int64) (err error) {
	defer func() { s.observe("delete", err) }()
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "user.deleted", id, map[string]any{"email": user.Email})
	return nil
}

// checkEmailAvailable adds the uniqueness message to errs. It only queries
// the store when the email is otherwise valid.
func (s *Service) checkEmailAvailable(ctx context.Context, errs map[string]string, email string, excludeID int64) error {
	if _, failed := errs[FieldEmail]; failed {
		return nil
	}
	taken, err := s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("users: check email: %w", err)
	}
	if taken {
		errs[FieldEmail] = MsgTaken
	}
	return nil
}

func (s *Service) observe(operation string, err error) {
	if s.observer == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		outcome = "invalid"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	s.observer.ObserveUserOperation(operation, outcome)
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  shared.ActorIDFromContext(ctx),
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record audit", slog.String("action", action), slog.Int64("user_id", id), slog.Any("error", err))
	}
}
