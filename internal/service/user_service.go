package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/encukou/prekapavac/internal/credentials"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/repository"
)

const (
	maxUsernameLen = 64
	minPasswordLen = 8

	// bcrypt ignores anything past 72 bytes.
	maxPasswordBytes = 72
)

// UserService manages accounts and checks credentials.
type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

type CreateUserInput struct {
	Username string
	Password string
	Email    string
	Admin    bool
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// IsAdmin reports whether the user is an active administrator.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if models.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return user.Admin && user.Active, nil
}

// Authenticate checks a username and password and records the login time.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid username or password")
		}
		return nil, err
	}

	ok, err := credentials.Verify(password, user.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrUnsupportedHashFormat) {
			return nil, models.WrapValidationError("Stored password cannot be checked; ask an administrator to reset it", err)
		}
		return nil, err
	}
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	if !user.Active {
		return nil, models.NewForbiddenError("Account is deactivated")
	}

	now := s.now()
	if err := s.userRepo.TouchSeen(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.SeenAt = &now
	return user, nil
}

// CreateUser registers an active account with a freshly hashed password.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	if len(username) > maxUsernameLen {
		return nil, models.NewValidationError("Username too long (max 64 characters)")
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: hash,
		Email:    strings.TrimSpace(in.Email),
		Admin:    in.Admin,
		Active:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword replaces the stored hash of a user.
func (s *UserService) SetPassword(ctx context.Context, username, password string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// SetAdmin promotes or demotes a user.
func (s *UserService) SetAdmin(ctx context.Context, username string, admin bool) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, admin); err != nil {
		return nil, err
	}
	user.Admin = admin
	return user, nil
}

// SetActive enables or disables logging in as a user.
func (s *UserService) SetActive(ctx context.Context, username string, active bool) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetActive(ctx, user.ID, active); err != nil {
		return nil, err
	}
	user.Active = active
	return user, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", models.NewValidationError("Password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return "", models.NewValidationError("Password too long (max 72 bytes)")
	}
	hash, err := credentials.Hash(password)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return hash, nil
}
