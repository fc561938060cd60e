package models

import (
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusPending  UserStatus = "pending"
	StatusRejected UserStatus = "rejected"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         UserRole   `gorm:"default:'member'" json:"role"`
	Status       UserStatus `gorm:"default:'pending'" json:"status"`

	// Relations
	Trips  []Trip      `gorm:"foreignKey:UserID" json:"trips,omitempty"`
	Shares []TripShare `gorm:"foreignKey:UserID" json:"shares,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuditLog records explicit administrative actions that must stay traceable,
// e.g. the one-time admin recovery bootstrap.
type AuditLog struct {
	gorm.Model
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Action string `gorm:"not null" json:"action"`
	Detail string `json:"detail"`
}
