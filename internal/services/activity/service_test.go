package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/study-api/internal/models"
	apperrors "github.com/killallgit/study-api/pkg/errors"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, entry *models.Activity) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) ListByStudy(ctx context.Context, studyID string, limit int) ([]models.Activity, error) {
	args := m.Called(ctx, studyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Activity), args.Error(1)
}

func (m *MockRepository) CountByStudy(ctx context.Context, studyID string) (int64, error) {
	args := m.Called(ctx, studyID)
	return args.Get(0).(int64), args.Error(1)
}

func TestServiceImpl_RecordAnnotationsSaved(t *testing.T) {
	ctx := context.Background()

	t.Run("records entry", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewService(mockRepo)

		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Activity")).
			Run(func(args mock.Arguments) {
				entry := args.Get(1).(*models.Activity)
				assert.Equal(t, "case-001", entry.StudyID)
				assert.Equal(t, "molar.stl", entry.ModelID)
				assert.Equal(t, models.ActionAnnotationsSaved, entry.Action)
				assert.Equal(t, 3, entry.Count)
				assert.Equal(t, "10.0.0.5", entry.Client)
			}).
			Return(nil)

		require.NoError(t, service.RecordAnnotationsSaved(ctx, "case-001", "molar.stl", 3, "10.0.0.5"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("validates required fields", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewService(mockRepo)

		err := service.RecordAnnotationsSaved(ctx, "", "molar.stl", 1, "")
		assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetCode(err))

		err = service.RecordAnnotationsSaved(ctx, "case-001", "", 1, "")
		assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetCode(err))

		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewService(mockRepo)

		mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))

		err := service.RecordAnnotationsSaved(ctx, "case-001", "molar.stl", 1, "")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabaseQuery, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestServiceImpl_RecordVideoAppended(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(entry *models.Activity) bool {
		return entry.Action == models.ActionVideoAppended &&
			entry.Subject == "recording-1.webm" &&
			entry.Count == 4 &&
			entry.ModelID == ""
	})).Return(nil)

	require.NoError(t, service.RecordVideoAppended(ctx, "case-001", "recording-1.webm", 4, ""))
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_ListByStudy(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, DefaultListLimit},
		{"negative limit", -5, DefaultListLimit},
		{"explicit limit", 10, 10},
		{"clamped limit", 10000, MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := NewService(mockRepo)

			mockRepo.On("ListByStudy", ctx, "case-001", tt.wantLimit).Return(nil, nil)

			entries, err := service.ListByStudy(ctx, "case-001", tt.limit)
			require.NoError(t, err)
			assert.NotNil(t, entries)
			assert.Empty(t, entries)
			mockRepo.AssertExpectations(t)
		})
	}
}
