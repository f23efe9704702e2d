// seed-admin creates or resets the bootstrap admin user.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// Username and password can be overridden with ADMIN_USERNAME / ADMIN_PASSWORD.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/utils"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "partsAdmin"
	defaultAdminPassword = "P@rtsFlowAdmin1"
	adminName            = "PartsFlow Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = defaultAdminUsername
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var user models.User
	err = db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Username: username,
			Password: string(hashed),
			Name:     adminName,
			Role:     models.UserRoleAdmin,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q (id=%d)\n", username, user.ID)
	case err != nil:
		fmt.Fprintf(os.Stderr, "failed to lookup admin user: %v\n", err)
		os.Exit(1)
	default:
		update := map[string]interface{}{
			"password":  string(hashed),
			"role":      models.UserRoleAdmin,
			"is_active": true,
		}
		if err := db.WithContext(ctx).Model(&user).Updates(update).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to reset admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("reset admin user %q (id=%d)\n", username, user.ID)
	}
}
