package types

import "github.com/killallgit/study-api/internal/models"

// SaveAnnotationsRequest replaces every annotation of one model
type SaveAnnotationsRequest struct {
	ModelID     string              `json:"modelId" example:"molar.stl"`
	Annotations []models.Annotation `json:"annotations"`
}
