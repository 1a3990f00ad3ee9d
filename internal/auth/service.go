package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/accounts"
	"github.com/mrlokans/library/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrNameRequired       = apperr.New(apperr.Validation, "name_required", "name is required")
	ErrEmailRequired      = apperr.New(apperr.Validation, "email_required", "email is required")
	ErrEmailInvalid       = apperr.New(apperr.Validation, "email_invalid", "invalid email format")
	ErrPasswordRequired   = apperr.New(apperr.Validation, "password_required", "password is required")
	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid_credentials", "invalid email or password")
	ErrAuthRequired       = apperr.New(apperr.Unauthorized, "unauthorized", "authentication required")
)

// Service handles registration and credential checks.
type Service struct {
	accounts *accounts.Repository
	config   config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *accounts.Repository, cfg config.Auth) *Service {
	return &Service{
		accounts: repo,
		config:   cfg,
	}
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the format and length (RFC 5321 limit is 254).
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// HashPassword hashes with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	return HashPassword(password, s.config.BcryptCost)
}

// Register creates a user with the given role, or the configured default
// role when roleName is empty.
func (s *Service) Register(name, email, password, roleName string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		return nil, ErrNameRequired
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	taken, err := s.accounts.EmailExists(email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, accounts.ErrEmailTaken
	}

	passwordHash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if roleName == "" {
		roleName = s.config.DefaultRole
	}
	role, err := s.accounts.GetRoleByName(roleName)
	if err != nil {
		return nil, fmt.Errorf("role %q: %w", roleName, err)
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		RoleID:       role.ID,
	}
	if err := s.accounts.CreateUser(user); err != nil {
		return nil, err
	}
	user.Role = *role

	return user, nil
}

// Authenticate validates credentials and returns the user. Unknown emails
// and wrong passwords produce the same error.
func (s *Service) Authenticate(email, password string) (*entities.User, error) {
	user, err := s.accounts.GetUserByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.accounts.RecordLogin(user.ID, time.Now()); err != nil {
		log.Printf("Failed to record login for user %d: %v", user.ID, err)
	}

	return user, nil
}

// UserExists reports whether a session or token still refers to a live user.
// Only a missing user is reported as false; lookup failures are returned.
func (s *Service) UserExists(id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	if _, err := s.accounts.GetUserByID(id); err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up user %d: %w", id, err)
	}
	return true, nil
}

// HasUsers reports whether any account exists.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.accounts.CountUsers()
	return count > 0, err
}
