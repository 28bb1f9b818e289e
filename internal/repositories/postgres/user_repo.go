package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/careerarchitect/backend/internal/models"
	"github.com/careerarchitect/backend/internal/utils"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	BumpStats(ctx context.Context, userID string, score int) error
}

// ErrDuplicate signals a uniqueness violation on create. Callers recover by
// re-reading the now-existing row.
var ErrDuplicate = errors.New("duplicate key")

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var row models.User
	err := r.db.WithContext(ctx).
		Where("firebase_uid = ?", firebaseUID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var row models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

// BumpStats applies the post-analysis counters in a single UPDATE so
// best_score stays monotonic under concurrent submissions.
func (r *userRepo) BumpStats(ctx context.Context, userID string, score int) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]any{
			"total_analyses": gorm.Expr("total_analyses + 1"),
			"best_score":     gorm.Expr("GREATEST(best_score, ?)", score),
		}).Error
}
