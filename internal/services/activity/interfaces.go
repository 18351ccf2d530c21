package activity

import (
	"context"

	"github.com/killallgit/study-api/internal/models"
)

// DefaultListLimit bounds ListByStudy when the caller passes no limit
const DefaultListLimit = 50

// MaxListLimit is the largest page ListByStudy will return
const MaxListLimit = 500

// Repository defines the interface for activity log data access
type Repository interface {
	Create(ctx context.Context, entry *models.Activity) error
	ListByStudy(ctx context.Context, studyID string, limit int) ([]models.Activity, error)
	CountByStudy(ctx context.Context, studyID string) (int64, error)
}

// Service records sync writes and reads them back per study
type Service interface {
	RecordAnnotationsSaved(ctx context.Context, studyID, modelID string, count int, client string) error
	RecordVideoAppended(ctx context.Context, studyID, videoName string, ledgerLength int, client string) error
	ListByStudy(ctx context.Context, studyID string, limit int) ([]models.Activity, error)
}
