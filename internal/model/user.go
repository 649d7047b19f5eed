package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User role constants
const (
	RoleVictim   = "victim"
	RoleOfficial = "official"
	RoleAdmin    = "admin"
)

// User represents both victims and officials of the compensation scheme
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone         string         `gorm:"type:varchar(15);index" json:"phone"`
	FullName      string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Password      string         `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	Role          string         `gorm:"type:varchar(50);not null;index" json:"role"`
	AadhaarNumber string         `gorm:"type:varchar(12)" json:"aadhaar_number,omitempty"`
	Address       string         `gorm:"type:text" json:"address,omitempty"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
