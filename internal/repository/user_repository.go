package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"loginify/internal/model"
)

// ErrDuplicateKey reports a write rejected by the username primary key or
// the email unique index.
var ErrDuplicateKey = errors.New("duplicate key")

const mysqlDuplicateEntry = 1062

// UserStore is the persistence contract of the user directory. Find methods
// return (nil, nil) when no row matches.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, username string) (bool, error)
	ListAll(ctx context.Context) ([]model.User, error)
	// Transaction runs fn against a store bound to one database transaction.
	// Returning an error from fn rolls back every write made through it.
	Transaction(ctx context.Context, fn func(store UserStore) error) error
}

type UserRepository struct {
	db *gorm.DB
}

var _ UserStore = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Insert(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("insert user failed: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("insert user failed: %w", err)
	}
	return nil
}

// Update writes the non-key columns of user. The username selects the row;
// a missing row is not an error.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ?", user.Username).
		Updates(map[string]interface{}{
			"email":         user.Email,
			"password_hash": user.PasswordHash,
		})
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return fmt.Errorf("update user failed: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("update user failed: %w", result.Error)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) (bool, error) {
	result := r.db.WithContext(ctx).Where("username = ?", username).Delete(&model.User{})
	if result.Error != nil {
		return false, fmt.Errorf("delete user failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("username asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(store UserStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
