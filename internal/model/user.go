package model

import (
	"time"

	"healthwatch/internal/store"
)

type Role string

const (
	RoleCommunity     Role = "community"
	RoleHealthWorker  Role = "health_worker"
	RoleAdmin         Role = "admin"
	RoleNationalAdmin Role = "national_admin"
)

// IsAdmin reports whether the role carries administrative rights.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleNationalAdmin
}

// User is stored with the password hash; API responses go through
// UserResponse so the hash never leaves the process.
type User struct {
	store.Meta
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	Role        Role       `json:"role"`
	Location    string     `json:"location,omitempty"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

// UserCollection is the collection name shared by the ref tables.
const UserCollection = "users"

type UserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// Request/Response DTOs
type RegisterRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        Role   `json:"role"`
	Location    string `json:"location"`
	PhoneNumber string `json:"phoneNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}
