package repository

import (
	"time"

	"pushconsole-backend/internal/messaging/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateRepository defines the interface for notification template storage
type TemplateRepository interface {
	Create(template *domain.Template) error
	FindByID(id string) (*domain.Template, error)
	FindAll(limit, offset int) ([]*domain.Template, int64, error)
	Delete(id string) error
}

// templateRepository implements TemplateRepository using GORM
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new GORM-based TemplateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(template *domain.Template) error {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()
	return r.db.Create(template).Error
}

func (r *templateRepository) FindByID(id string) (*domain.Template, error) {
	var template domain.Template
	err := r.db.Where("id = ?", id).First(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) FindAll(limit, offset int) ([]*domain.Template, int64, error) {
	var templates []*domain.Template
	var total int64

	query := r.db.Model(&domain.Template{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&templates).Error
	return templates, total, err
}

func (r *templateRepository) Delete(id string) error {
	return r.db.Delete(&domain.Template{}, "id = ?", id).Error
}
