package models

import "time"

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleProjectManager UserRole = "project_manager"
	RoleTeamMember     UserRole = "team_member"
	RoleViewer         UserRole = "viewer"
)

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

type User struct {
	Base
	Email           string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash    string     `gorm:"not null" json:"-"`
	FirstName       string     `gorm:"size:100;not null" json:"first_name"`
	LastName        string     `gorm:"size:100;not null" json:"last_name"`
	Avatar          string     `json:"avatar,omitempty"`
	Phone           string     `gorm:"size:32" json:"phone,omitempty"`
	Bio             string     `gorm:"type:text" json:"bio,omitempty"`
	Role            UserRole   `gorm:"size:32;not null" json:"role"`
	Status          UserStatus `gorm:"size:32;not null;index" json:"status"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	IsEmailVerified bool       `json:"is_email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	// Reset token and expiry are cleared together once the token is consumed.
	PasswordResetToken   *string    `gorm:"uniqueIndex;size:128" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
}
