package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username" binding:"required"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email" binding:"required"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	FullName  string    `gorm:"size:100" json:"fullName"`
	Role      string    `gorm:"size:20;not null;default:kasir" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	RoleAdmin    = "admin"
	RoleApoteker = "apoteker"
	RoleKasir    = "kasir"
)

type NewUser struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleApoteker, RoleKasir:
		return true
	}
	return false
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if !utils.IsValidEmail(input.Email) {
		return nil, utils.NewValidationError("invalid email address: %s", input.Email)
	}
	role := input.Role
	if role == "" {
		role = RoleKasir
	}
	if !validRole(role) {
		return nil, utils.NewValidationError("unknown role: %s", role)
	}
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
		FullName: input.FullName,
		Role:     role,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and returns a signed token together with the
// user record. Inactive accounts are rejected the same way as bad
// credentials so the response does not leak account state.
func Login(ctx context.Context, input *LoginInput) (*AuthPayload, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("username = ?", input.Username).First(&user).Error
	if err != nil {
		return nil, utils.NewValidationError("invalid username or password")
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, utils.NewValidationError("invalid username or password")
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return nil, utils.NewValidationError("invalid username or password")
	}

	token, err := utils.JwtGenerate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthPayload{Token: token, User: &user}, nil
}

func ChangePassword(ctx context.Context, userId int, oldPassword, newPassword string) error {
	user, err := utils.FetchModel[User](ctx, userId)
	if err != nil {
		return err
	}
	if err := utils.ComparePassword(user.Password, oldPassword); err != nil {
		return utils.NewValidationError("old password does not match")
	}
	if len(newPassword) < 6 {
		return utils.NewValidationError("password must be at least 6 characters")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Model(user).Update("password", string(hashed)).Error
}

func FetchUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}

type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

func UpdateUser(ctx context.Context, id int, input *UpdateUserInput) (*User, error) {
	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		if err := utils.ValidateUnique[User](ctx, "username", *input.Username, id); err != nil {
			return nil, err
		}
		user.Username = *input.Username
	}
	if input.Email != nil {
		if !utils.IsValidEmail(*input.Email) {
			return nil, utils.NewValidationError("invalid email address: %s", *input.Email)
		}
		if err := utils.ValidateUnique[User](ctx, "email", *input.Email, id); err != nil {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			return nil, utils.NewValidationError("password must be at least 6 characters")
		}
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Role != nil {
		if !validRole(*input.Role) {
			return nil, utils.NewValidationError("unknown role: %s", *input.Role)
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account. Accounts still linked to a pegawai
// record are refused so the employee's document references stay intact.
func DeleteUser(ctx context.Context, id int) (*User, error) {
	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Pegawai](ctx, "user_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewConflictError("user %s masih terhubung dengan data pegawai", user.Username)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

type UserListParams struct {
	ListParams
	Role     string `form:"role"`
	IsActive *bool  `form:"isActive"`
}

func ListUsers(ctx context.Context, params UserListParams) ([]*User, *Pagination, error) {
	params.Normalize("username ASC")
	if params.Role != "" && !validRole(params.Role) {
		return nil, nil, utils.NewValidationError("unknown role: %s", params.Role)
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&User{})
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		dbCtx = dbCtx.Where("username LIKE ? OR email LIKE ? OR full_name LIKE ?", pattern, pattern, pattern)
	}
	if params.Role != "" {
		dbCtx = dbCtx.Where("role = ?", params.Role)
	}
	if params.IsActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *params.IsActive)
	}

	var users []*User
	pagination, err := paginate(dbCtx, params.ListParams, &users)
	if err != nil {
		return nil, nil, err
	}
	return users, pagination, nil
}
