package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-questions/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// FindByName loads the full user record for an exact, case-sensitive name.
func (s *UserService) FindByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %q: %w", name, err)
	}
	return &user, nil
}

// FindByID loads a user by primary key.
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

// Register creates a plain user (expert and admin unset) with a bcrypt-hashed password.
// The existence check gives the common case a clean error; the unique index on
// users.name catches the concurrent case.
func (s *UserService) Register(ctx context.Context, name, password string) (*models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check user %q: %w", name, err)
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Name: name, Password: string(hash)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create user %q: %w", name, err)
	}
	return &user, nil
}

// Authenticate returns the user when name and password match.
// A missing user and a wrong password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, name, password string) (*models.User, error) {
	user, err := s.FindByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ListExperts returns every user flagged as expert, by id.
func (s *UserService) ListExperts(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("expert = ?", true).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list experts: %w", err)
	}
	return users, nil
}

// List returns all users, by id.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Promote sets the expert flag. Promoting an expert again is a no-op in effect.
func (s *UserService) Promote(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("expert", true)
	if res.Error != nil {
		return fmt.Errorf("promote user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdmin creates the named admin account if missing and makes sure an
// existing account with that name carries the admin flag. The password is
// only used on creation.
func (s *UserService) EnsureAdmin(ctx context.Context, name, password string) (*models.User, error) {
	user, err := s.FindByName(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		hash, herr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if herr != nil {
			return nil, fmt.Errorf("hash password: %w", herr)
		}
		user = &models.User{Name: name, Password: string(hash), Admin: true}
		if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, fmt.Errorf("create admin %q: %w", name, err)
		}
		return user, nil
	case err != nil:
		return nil, err
	}
	if !user.Admin {
		if err := s.db.WithContext(ctx).Model(user).Update("admin", true).Error; err != nil {
			return nil, fmt.Errorf("flag admin %q: %w", name, err)
		}
		user.Admin = true
	}
	return user, nil
}
