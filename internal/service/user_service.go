package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

// UserService handles the admin credential lifecycle: signup, login
// verification and the lookups the request guard performs.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

// Register hashes the password and persists a new credential. It never
// issues a token; signup does not log the caller in.
func (s *userService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	var missing []string
	if username == "" {
		missing = append(missing, "Username is required")
	}
	if password == "" {
		missing = append(missing, "Password is required")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Messages: missing}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

// Authenticate verifies the password against the stored hash. Unknown
// usernames and wrong passwords fail with distinct errors, matching the
// login responses the API exposes.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
