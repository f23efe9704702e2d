package models

import (
	"context"
	"errors"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username" binding:"required"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Role      UserRole  `gorm:"type:enum('Admin','Staff');not null;default:'Staff'" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required,min=8"`
	Name     string   `json:"name" validate:"required"`
	Role     UserRole `json:"role"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, NewDuplicateError("user", "username", input.Username)
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = UserRoleStaff
	}

	user := User{
		Username: input.Username,
		Password: string(hashed),
		Name:     input.Name,
		Role:     role,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("user", id)
		}
		return nil, err
	}
	return &user, nil
}
