package model

import (
	"time"
)

const (
	ActionCreateItem    = "CREATE_ITEM"
	ActionUpdateItem    = "UPDATE_ITEM"
	ActionDeleteItem    = "DELETE_ITEM"
	ActionCreateStorage = "CREATE_STORAGE"
	ActionDeleteStorage = "DELETE_STORAGE"
	ActionCreateGroup   = "CREATE_GROUP"
	ActionDeleteGroup   = "DELETE_GROUP"
	ActionCreateRole    = "CREATE_ROLE"
	ActionDeleteRole    = "DELETE_ROLE"
	ActionCreateUser    = "CREATE_USER"
	ActionDeleteUser    = "DELETE_USER"

	// Recorded when a duplicate-name create is rejected
	ActionRejectDuplicate = "REJECT_DUPLICATE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"` // Nullable for system actions
	User       *User     `gorm:"foreignKey:UserID" json:"user"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:text" json:"details"`
	CreatedAt  time.Time `gorm:"index;autoCreateTime" json:"created_at"`
}
