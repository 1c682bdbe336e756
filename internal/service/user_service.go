package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"usersvc/internal/auth"
	"usersvc/internal/domain"
	"usersvc/internal/repository"
)

// dummyHash is compared against when authentication targets an unknown
// username, so both failure paths pay the same bcrypt cost.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UpdateUserInput carries the fields of a partial user update. Nil fields are
// left unchanged. Password, when set, is the new plaintext and is validated
// and hashed before it reaches storage.
type UpdateUserInput struct {
	Username *string
	Email    *string
	FullName *string
	Password *string
	IsActive *bool
}

// UserService exposes the user lifecycle operations consumed by the API layer.
type UserService interface {
	Register(ctx context.Context, username, email, password, fullName string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]domain.User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type userService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	logger *logrus.Logger
}

func NewUserService(users repository.UserRepository, hasher *auth.PasswordHasher, logger *logrus.Logger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

func (s *userService) Register(ctx context.Context, username, email, password, fullName string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	// Pre-check both unique fields so the caller learns which one conflicts.
	// The storage constraint remains the authority under concurrent creates.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, &AlreadyExistsError{Field: "username"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, &AlreadyExistsError{Field: "email"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		IsActive:     true,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if field, ok := repository.IsDuplicateKey(err); ok {
			return nil, &AlreadyExistsError{Field: field}
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": username}).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn the same hashing cost as the known-user path
			s.hasher.Verify(password, dummyHash)
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrAuthenticationFailed
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]domain.User, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 100
	}

	users, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error) {
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	update := repository.UserUpdate{
		FullName: input.FullName,
		IsActive: input.IsActive,
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		if username != current.Username {
			if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != id {
				return nil, &AlreadyExistsError{Field: "username"}
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			update.Username = &username
		}
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != current.Email {
			if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != id {
				return nil, &AlreadyExistsError{Field: "email"}
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			update.Email = &email
		}
	}

	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		// skip the write when the new password matches the stored one
		if !s.hasher.Verify(*input.Password, current.PasswordHash) {
			hash, err := s.hasher.Hash(*input.Password)
			if err != nil {
				return nil, err
			}
			update.PasswordHash = &hash
		}
	}

	updated, err := s.users.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		if field, ok := repository.IsDuplicateKey(err); ok {
			return nil, &AlreadyExistsError{Field: field}
		}
		return nil, err
	}

	s.logger.WithField("user_id", id).Info("user updated")
	return sanitizeUser(updated), nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return &ValidationError{Field: "username", Reason: "is required"}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "is required"}
	}
	if len(password) < 8 {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return &ValidationError{Field: "password", Reason: "must contain an uppercase letter"}
	}
	if !hasLower {
		return &ValidationError{Field: "password", Reason: "must contain a lowercase letter"}
	}
	if !hasDigit {
		return &ValidationError{Field: "password", Reason: "must contain a digit"}
	}
	return nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clone := *user
	clone.PasswordHash = ""
	return &clone
}
