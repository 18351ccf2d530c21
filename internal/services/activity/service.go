package activity

import (
	"context"

	"github.com/killallgit/study-api/internal/models"
	apperrors "github.com/killallgit/study-api/pkg/errors"
)

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
}

// NewService creates a new activity service
func NewService(repository Repository) Service {
	return &ServiceImpl{
		repository: repository,
	}
}

// RecordAnnotationsSaved logs a replaced annotation slice
func (s *ServiceImpl) RecordAnnotationsSaved(ctx context.Context, studyID, modelID string, count int, client string) error {
	if studyID == "" {
		return apperrors.MissingFieldError("studyId")
	}
	if modelID == "" {
		return apperrors.MissingFieldError("modelId")
	}

	return s.record(ctx, &models.Activity{
		StudyID: studyID,
		ModelID: modelID,
		Action:  models.ActionAnnotationsSaved,
		Count:   count,
		Client:  client,
	})
}

// RecordVideoAppended logs a ledger append
func (s *ServiceImpl) RecordVideoAppended(ctx context.Context, studyID, videoName string, ledgerLength int, client string) error {
	if studyID == "" {
		return apperrors.MissingFieldError("studyId")
	}

	return s.record(ctx, &models.Activity{
		StudyID: studyID,
		Action:  models.ActionVideoAppended,
		Count:   ledgerLength,
		Subject: videoName,
		Client:  client,
	})
}

func (s *ServiceImpl) record(ctx context.Context, entry *models.Activity) error {
	if err := s.repository.Create(ctx, entry); err != nil {
		return apperrors.DatabaseError("record activity", err)
	}
	return nil
}

// ListByStudy returns up to limit entries, newest first.
// A non-positive limit means DefaultListLimit.
func (s *ServiceImpl) ListByStudy(ctx context.Context, studyID string, limit int) ([]models.Activity, error) {
	if studyID == "" {
		return nil, apperrors.MissingFieldError("studyId")
	}

	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	entries, err := s.repository.ListByStudy(ctx, studyID, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("list activity", err)
	}
	if entries == nil {
		entries = []models.Activity{}
	}
	return entries, nil
}
