package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/config"
	"github.com/jonathan/ghostpen/internal/db"
	"github.com/jonathan/ghostpen/internal/types"
)

// UserStore is the part of db.Store the account logic needs.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// UserService provides business logic for account operations.
type UserService struct {
	store     UserStore
	passwords *config.PasswordConfig
	logger    *zap.Logger
}

// NewUserService creates a new UserService with the given dependencies.
func NewUserService(store UserStore, passwords *config.PasswordConfig, logger *zap.Logger) *UserService {
	return &UserService{store: store, passwords: passwords, logger: logger}
}

// Register creates an account. A taken email yields db.ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*db.User, error) {
	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.store.CreateUser(ctx, req.Name, req.Email, hash)
	if err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if !s.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if s.passwords.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}
	return user, nil
}

// rehash upgrades a hash made with an outdated cost. Failures only cost the
// upgrade, so they are logged and the login proceeds.
func (s *UserService) rehash(ctx context.Context, user *db.User, password string) {
	hash, err := s.passwords.HashPassword(password)
	if err == nil {
		err = s.store.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn("password rehash failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	user.PasswordHash = hash
}

// Get returns the account with id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*db.User, error) {
	return s.store.GetUser(ctx, id)
}
