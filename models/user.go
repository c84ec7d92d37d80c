package models

import (
	"context"
	"errors"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
	"gorm.io/gorm"
)

// User exists so the capability check ("is this actor the owner?") and the
// createdBy audit fields have something real behind them. Full user
// management lives outside the billing core.
type User struct {
	ID           int        `gorm:"primary_key" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username" binding:"required"`
	FullName     string     `gorm:"size:100" json:"full_name"`
	PasswordHash string     `gorm:"size:100;not null" json:"-"`
	Role         UserRole   `gorm:"type:enum('owner','staff');default:'staff'" json:"role"`
	Status       UserStatus `gorm:"type:enum('active','inactive');default:'active'" json:"status"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

var ErrorInvalidCredentials = errors.New("invalid username or password")

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).
		Where("username = ? AND status = ?", input.Username, UserStatusActive).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorInvalidCredentials
		}
		return nil, err
	}

	if err := utils.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, ErrorInvalidCredentials
	}

	token, err := utils.JwtGenerate(user.ID, user.Username, user.FullName, string(user.Role))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		config.LogError(config.GetLogger(), "user.go", "Login", "update last_login", user.ID, err)
	}
	user.LastLogin = &now

	return &LoginResult{Token: token, User: &user}, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EnsureDefaultOwner seeds an owner account on an empty users table so a
// fresh install can log in. The password must be rotated immediately.
func EnsureDefaultOwner(ctx context.Context) error {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}
	owner := User{
		Username:     "owner",
		FullName:     "Shop Owner",
		PasswordHash: string(hash),
		Role:         UserRoleOwner,
		Status:       UserStatusActive,
	}
	if err := db.WithContext(ctx).Create(&owner).Error; err != nil {
		return err
	}
	config.GetLogger().Warn("seeded default owner account; change the password")
	return nil
}
