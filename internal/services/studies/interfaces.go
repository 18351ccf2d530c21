package studies

import (
	"context"

	"github.com/killallgit/study-api/internal/models"
)

// On-disk layout of a study directory
const (
	AnnotationsDir = "annotations"
	VideosDir      = "videos"
	VideoLedger    = "videos.json"
)

// Store defines the file-backed study store.
// Errors are *errors.AppError values carrying NOT_FOUND, validation or storage codes.
type Store interface {
	// Read operations
	ListStudies(ctx context.Context) ([]models.StudySummary, error)
	GetStudy(ctx context.Context, studyID, baseURL string) (*models.Study, error)

	// Write operations
	SaveAnnotations(ctx context.Context, studyID, modelID string, annotations []models.Annotation) error
	AppendVideo(ctx context.Context, studyID string, video models.Video) (models.Video, int, error)

	// Structure operations
	EnsureStructure(ctx context.Context, studyID string) error
	CreateStudy(ctx context.Context, studyID string) error

	SamplesDir() string
}
