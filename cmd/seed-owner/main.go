// seed-owner creates or resets the shop owner account. Use it on a fresh
// install or after a lost password; the printed password must be rotated via
// the app afterwards.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     OWNER_USERNAME=owner OWNER_PASSWORD=secret go run ./cmd/seed-owner
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/models"
	"github.com/kiranasoft/kirana_backend/utils"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()

	username := os.Getenv("OWNER_USERNAME")
	if username == "" {
		username = "owner"
	}
	password := os.Getenv("OWNER_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "OWNER_PASSWORD is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username:     username,
			FullName:     "Shop Owner",
			PasswordHash: string(hashed),
			Role:         models.UserRoleOwner,
			Status:       models.UserStatusActive,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create owner: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created owner account %q\n", username)
		return
	}

	updates := map[string]interface{}{
		"password_hash": string(hashed),
		"role":          models.UserRoleOwner,
		"status":        models.UserStatusActive,
	}
	if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update owner: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reset password and role for %q\n", username)
}
