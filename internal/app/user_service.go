package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"loginify/internal/model"
	"loginify/internal/repository"
)

// UserCache is the optional read-through cache for single-user lookups.
// After DeleteUser, a SetUser for the same email must not take effect for a
// hold period, so a fill that read the row before a write committed cannot
// resurrect it.
type UserCache interface {
	GetUser(ctx context.Context, email string) (*model.User, bool, error)
	SetUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, emails ...string) error
}

// EventPublisher receives user lifecycle events after they are committed.
type EventPublisher interface {
	Publish(ctx context.Context, event model.UserEvent) error
}

// EventHistory reads the audit rows persisted from user events.
type EventHistory interface {
	ListByUsername(ctx context.Context, username string, limit int) ([]model.UserEvent, error)
}

type UserService struct {
	users      repository.UserStore
	cache      UserCache
	events     EventPublisher
	history    EventHistory
	bcryptCost int
	logger     *zap.Logger
}

type Option func(*UserService)

func WithCache(cache UserCache) Option {
	return func(s *UserService) { s.cache = cache }
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *UserService) { s.events = publisher }
}

func WithEventHistory(history EventHistory) Option {
	return func(s *UserService) { s.history = history }
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// UpdateInput is a partial patch; empty fields keep the stored value.
type UpdateInput struct {
	Username string
	Email    string
	Password string
}

func NewUserService(users repository.UserStore, bcryptCost int, logger *zap.Logger, opts ...Option) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &UserService{
		users:      users,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	password := input.Password

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existingByName, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.publish(ctx, model.UserEventCreated, user, "")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListAll(ctx)
}

// GetUser never returns the password hash, whether the record comes from the
// cache or the database.
func (s *UserService) GetUser(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrNotFound
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetUser(ctx, email)
		if err != nil {
			s.logger.Warn("user cache read failed", zap.String("email", email), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	user.PasswordHash = ""

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, user); err != nil {
			s.logger.Warn("user cache write failed", zap.String("email", email), zap.Error(err))
		}
	}
	return user, nil
}

// UpdateUser applies a partial patch to the record currently holding email.
// A changed username replaces the row (delete + insert); every step runs in
// one transaction so the freed username cannot be claimed mid-rename.
func (s *UserService) UpdateUser(ctx context.Context, email string, input UpdateInput) (*model.User, error) {
	email = normalizeEmail(email)
	newUsernameInput := strings.TrimSpace(input.Username)
	newEmailInput := normalizeEmail(input.Email)

	if newUsernameInput != "" {
		if err := validateUsername(newUsernameInput); err != nil {
			return nil, err
		}
	}
	if newEmailInput != "" {
		if err := validateEmail(newEmailInput); err != nil {
			return nil, err
		}
	}

	var newHash string
	if input.Password != "" {
		if err := validatePassword(input.Password); err != nil {
			return nil, err
		}
		hash, err := s.hashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		newHash = hash
	}

	var previous, updated *model.User
	err := s.users.Transaction(ctx, func(store repository.UserStore) error {
		current, err := store.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}

		next := &model.User{
			Username:     current.Username,
			Email:        current.Email,
			PasswordHash: current.PasswordHash,
			CreatedAt:    current.CreatedAt,
		}
		if newUsernameInput != "" {
			next.Username = newUsernameInput
		}
		if newEmailInput != "" {
			next.Email = newEmailInput
		}
		if newHash != "" {
			next.PasswordHash = newHash
		}

		renamed := next.Username != current.Username
		if renamed {
			other, err := store.FindByUsername(ctx, next.Username)
			if err != nil {
				return err
			}
			// case-insensitive collations match the current row itself
			if other != nil && other.Username != current.Username {
				return ErrUsernameExists
			}
		}
		if next.Email != current.Email {
			other, err := store.FindByEmail(ctx, next.Email)
			if err != nil {
				return err
			}
			if other != nil {
				return ErrEmailExists
			}
		}

		if renamed {
			if _, err := store.Delete(ctx, current.Username); err != nil {
				return err
			}
			if err := store.Insert(ctx, next); err != nil {
				return err
			}
		} else if err := store.Update(ctx, next); err != nil {
			return err
		}

		fresh, err := store.FindByUsername(ctx, next.Username)
		if err != nil {
			return err
		}
		if fresh == nil {
			return fmt.Errorf("reload user %q after update: %w", next.Username, ErrNotFound)
		}
		previous, updated = current, fresh
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.invalidate(ctx, previous.Email, updated.Email)
	prevUsername := ""
	if previous.Username != updated.Username {
		prevUsername = previous.Username
	}
	s.publish(ctx, model.UserEventUpdated, updated, prevUsername)
	return updated, nil
}

// DeleteUser removes the record holding email and returns its username.
func (s *UserService) DeleteUser(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	var deleted *model.User
	err := s.users.Transaction(ctx, func(store repository.UserStore) error {
		user, err := store.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		ok, err := store.Delete(ctx, user.Username)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		deleted = user
		return nil
	})
	if err != nil {
		return "", err
	}

	s.invalidate(ctx, deleted.Email)
	s.publish(ctx, model.UserEventDeleted, deleted, "")
	return deleted.Username, nil
}

// UserEvents lists the audit history of the record currently holding email,
// newest first.
func (s *UserService) UserEvents(ctx context.Context, email string, limit int) ([]model.UserEvent, error) {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []model.UserEvent{}, nil
	}
	return s.history.ListByUsername(ctx, user.Username, limit)
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) invalidate(ctx context.Context, emails ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteUser(ctx, emails...); err != nil {
		s.logger.Warn("user cache invalidation failed", zap.Strings("emails", emails), zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, eventType string, user *model.User, previousUsername string) {
	if s.events == nil {
		return
	}
	event := model.UserEvent{
		Type:             eventType,
		Username:         user.Username,
		PreviousUsername: previousUsername,
		Email:            user.Email,
		OccurredAt:       time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish user event failed",
			zap.String("type", eventType),
			zap.String("username", user.Username),
			zap.Error(err),
		)
	}
}
