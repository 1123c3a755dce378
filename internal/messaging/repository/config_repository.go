package repository

import (
	"time"

	"pushconsole-backend/internal/messaging/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderConfigRepository defines the interface for provider config storage
type ProviderConfigRepository interface {
	Create(config *domain.ProviderConfig) error
	FindByID(id string) (*domain.ProviderConfig, error)
	FindAll(limit, offset int) ([]*domain.ProviderConfig, int64, error)
	Delete(id string) error
}

// providerConfigRepository implements ProviderConfigRepository using GORM
type providerConfigRepository struct {
	db *gorm.DB
}

// NewProviderConfigRepository creates a new GORM-based ProviderConfigRepository
func NewProviderConfigRepository(db *gorm.DB) ProviderConfigRepository {
	return &providerConfigRepository{db: db}
}

func (r *providerConfigRepository) Create(config *domain.ProviderConfig) error {
	if config.ID == "" {
		config.ID = uuid.New().String()
	}
	config.CreatedAt = time.Now()
	config.UpdatedAt = time.Now()
	return r.db.Create(config).Error
}

func (r *providerConfigRepository) FindByID(id string) (*domain.ProviderConfig, error) {
	var config domain.ProviderConfig
	err := r.db.Where("id = ?", id).First(&config).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

func (r *providerConfigRepository) FindAll(limit, offset int) ([]*domain.ProviderConfig, int64, error) {
	var configs []*domain.ProviderConfig
	var total int64

	query := r.db.Model(&domain.ProviderConfig{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&configs).Error
	return configs, total, err
}

func (r *providerConfigRepository) Delete(id string) error {
	return r.db.Delete(&domain.ProviderConfig{}, "id = ?", id).Error
}
