package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/pkg/orm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user. Uniqueness of email, phone and username is checked
// inside the insert transaction; the unique indexes settle races between
// concurrent registrations, which surface as the same *DuplicateError.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if field, err := conflictingField(ctx, tx, user); err != nil {
			return err
		} else if field != "" {
			return &DuplicateError{Field: field}
		}
		return tx.Create(user).Error
	})

	var dup *DuplicateError
	switch {
	case err == nil, errors.As(err, &dup):
		return err
	case isUniqueViolation(err):
		// Lost a race: the transaction is gone, look again outside it.
		field, lookupErr := conflictingField(ctx, r.db, user)
		if lookupErr != nil || field == "" {
			field = "email"
		}
		return &DuplicateError{Field: field}
	default:
		return fmt.Errorf("create user: %w", err)
	}
}

func conflictingField(ctx context.Context, db *gorm.DB, user *models.User) (string, error) {
	checks := []struct {
		field string
		value string
	}{
		{"email", user.Email},
		{"phone", user.Phone},
		{"username", user.Username},
	}
	for _, c := range checks {
		taken, err := orm.DB(ctx, db).Model(&models.User{}).Where(c.field+" = ?", c.value).Exists()
		if err != nil {
			return "", fmt.Errorf("check %s: %w", c.field, err)
		}
		if taken {
			return c.field, nil
		}
	}
	return "", nil
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := orm.DB(ctx, r.db).Where("id = ?", id).First(&user)
	return user, err
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := orm.DB(ctx, r.db).Where("email = ?", email).First(&user)
	return user, err
}

// FindByIdentifier matches identifier against email OR phone.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	var user models.User
	err := orm.DB(ctx, r.db).Where("email = ? OR phone = ?", identifier, identifier).First(&user)
	return user, err
}
