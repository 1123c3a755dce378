package repository

import (
	"time"

	"pushconsole-backend/internal/messaging/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipientGroupRepository defines the interface for recipient group storage
type RecipientGroupRepository interface {
	Create(group *domain.RecipientGroup) error
	FindByID(id string) (*domain.RecipientGroup, error)
	FindAll(limit, offset int) ([]*domain.RecipientGroup, int64, error)
	Delete(id string) error
}

// recipientGroupRepository implements RecipientGroupRepository using GORM
type recipientGroupRepository struct {
	db *gorm.DB
}

// NewRecipientGroupRepository creates a new GORM-based RecipientGroupRepository
func NewRecipientGroupRepository(db *gorm.DB) RecipientGroupRepository {
	return &recipientGroupRepository{db: db}
}

func (r *recipientGroupRepository) Create(group *domain.RecipientGroup) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()
	return r.db.Create(group).Error
}

func (r *recipientGroupRepository) FindByID(id string) (*domain.RecipientGroup, error) {
	var group domain.RecipientGroup
	err := r.db.Where("id = ?", id).First(&group).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

func (r *recipientGroupRepository) FindAll(limit, offset int) ([]*domain.RecipientGroup, int64, error) {
	var groups []*domain.RecipientGroup
	var total int64

	query := r.db.Model(&domain.RecipientGroup{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&groups).Error
	return groups, total, err
}

func (r *recipientGroupRepository) Delete(id string) error {
	return r.db.Delete(&domain.RecipientGroup{}, "id = ?", id).Error
}
