package domain

import "time"

// TokenStatus represents whether a device token may still receive pushes
type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusRevoked TokenStatus = "revoked"
)

// DeviceToken represents a device token registered for push notifications.
// Only active tokens are eligible for dispatch.
type DeviceToken struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	Token      string           `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	Status     TokenStatus      `json:"status" gorm:"default:active"`
	DeviceInfo string           `json:"device_info"` // Browser/device metadata
	Groups     []RecipientGroup `json:"-" gorm:"many2many:group_device_tokens"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// RecipientGroup is a named audience a task can target
type RecipientGroup struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
