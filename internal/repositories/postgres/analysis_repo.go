package postgres

import (
	"context"
	"errors"

	"github.com/careerarchitect/backend/internal/models"
	"github.com/careerarchitect/backend/internal/utils"
	"gorm.io/gorm"
)

type AnalysisRepository interface {
	Insert(ctx context.Context, a *models.Analysis) error
	GetByID(ctx context.Context, id string) (*models.Analysis, error)
	ListByUser(ctx context.Context, userID string) ([]models.Analysis, error)
	Delete(ctx context.Context, id string) error
}

type analysisRepo struct {
	db *gorm.DB
}

func NewAnalysisRepo(db *gorm.DB) AnalysisRepository {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Insert(ctx context.Context, a *models.Analysis) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *analysisRepo) GetByID(ctx context.Context, id string) (*models.Analysis, error) {
	var row models.Analysis
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *analysisRepo) ListByUser(ctx context.Context, userID string) ([]models.Analysis, error) {
	var rows []models.Analysis
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *analysisRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Analysis{}).Error
}
