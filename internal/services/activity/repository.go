package activity

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/killallgit/study-api/internal/models"
)

// RepositoryImpl implements the Repository interface
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new activity repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Create inserts one activity entry
func (r *RepositoryImpl) Create(ctx context.Context, entry *models.Activity) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("creating activity: %w", err)
	}
	return nil
}

// ListByStudy returns the newest entries for a study first
func (r *RepositoryImpl) ListByStudy(ctx context.Context, studyID string, limit int) ([]models.Activity, error) {
	var entries []models.Activity
	if err := r.db.WithContext(ctx).
		Where("study_id = ?", studyID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing activity for study: %w", err)
	}
	return entries, nil
}

// CountByStudy returns the number of entries recorded for a study
func (r *RepositoryImpl) CountByStudy(ctx context.Context, studyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("study_id = ?", studyID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting activity for study: %w", err)
	}
	return count, nil
}
