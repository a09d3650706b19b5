package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/pkg/auth"
	"github.com/shashiranjanraj/carby/pkg/validate"
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string `form:"username"                validate:"required,min=2,max=50"`
	Email           string `form:"email"                   validate:"required,email,max=120"`
	Phone           string `form:"phone"                   validate:"required,phone,min=5,max=20"`
	Password        string `form:"password,notrim"         validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password,notrim" validate:"same=password"`
}

// IdentityService registers and authenticates users.
type IdentityService struct {
	users *repositories.UserRepository
}

func NewIdentityService(users *repositories.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// Register creates a user. A taken email, phone or username fails with a
// *DuplicateError naming the field (errors.Is(err, ErrDuplicateIdentity)).
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Username = strings.TrimSpace(in.Username)

	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.User{}, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate matches identifier against email or phone and verifies the
// password hash. Unknown identifiers still pay for one bcrypt comparison.
func (s *IdentityService) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		auth.BurnCompare(password)
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("authenticate: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// FindByID returns ErrNotFound when no user has id.
func (s *IdentityService) FindByID(ctx context.Context, id uint) (models.User, error) {
	return s.users.FindByID(ctx, id)
}
