package repository

import (
	"time"

	"pushconsole-backend/internal/messaging/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines the interface for device token operations
type DeviceTokenRepository interface {
	// SaveToken registers or refreshes a device token and attaches it to the
	// given recipient groups (atomic upsert on the token value)
	SaveToken(token, deviceInfo string, groupIDs []string) error

	// FindActiveByGroupID returns all active tokens attached to a group
	FindActiveByGroupID(groupID string) ([]domain.DeviceToken, error)

	// RevokeToken marks a token as revoked without deleting its history
	RevokeToken(token string) error

	DeleteToken(token string) error
}

// deviceTokenRepository implements DeviceTokenRepository using GORM
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a new GORM-based DeviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) SaveToken(token, deviceInfo string, groupIDs []string) error {
	deviceToken := &domain.DeviceToken{
		ID:         uuid.New().String(),
		Token:      token,
		Status:     domain.TokenStatusActive,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// Atomic upsert: INSERT ... ON CONFLICT (token) DO UPDATE
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "device_info", "updated_at"}),
	}).Create(deviceToken).Error
	if err != nil {
		return err
	}

	if len(groupIDs) == 0 {
		return nil
	}

	// Re-read to get the surviving row id before attaching group associations
	var existing domain.DeviceToken
	if err := r.db.Where("token = ?", token).First(&existing).Error; err != nil {
		return err
	}

	var groups []domain.RecipientGroup
	if err := r.db.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
		return err
	}
	return r.db.Model(&existing).Association("Groups").Append(&groups)
}

func (r *deviceTokenRepository) FindActiveByGroupID(groupID string) ([]domain.DeviceToken, error) {
	var tokens []domain.DeviceToken
	err := r.db.
		Joins("JOIN group_device_tokens ON group_device_tokens.device_token_id = device_tokens.id").
		Where("group_device_tokens.recipient_group_id = ? AND device_tokens.status = ?", groupID, domain.TokenStatusActive).
		Order("device_tokens.created_at ASC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *deviceTokenRepository) RevokeToken(token string) error {
	return r.db.Model(&domain.DeviceToken{}).Where("token = ?", token).
		Updates(map[string]interface{}{
			"status":     domain.TokenStatusRevoked,
			"updated_at": time.Now(),
		}).Error
}

func (r *deviceTokenRepository) DeleteToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&domain.DeviceToken{}).Error
}
