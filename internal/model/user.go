package model

import (
	"time"
)

// User represents the authentication identity. Authorization is never
// assigned to a user directly: permissions are resolved through the groups
// the user belongs to (group_user is owned by the Group side).
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName     *string   `gorm:"type:varchar(64)" json:"first_name,omitempty"`
	LastName      *string   `gorm:"type:varchar(64)" json:"last_name,omitempty"`
	ImageFilename *string   `gorm:"type:varchar(256)" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	Groups        []Group   `gorm:"many2many:group_user;" json:"-"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
