package models

import (
	"gorm.io/gorm"
)

// ActivityAction names the kind of sync event recorded in the activity log
type ActivityAction string

const (
	ActionAnnotationsSaved ActivityAction = "annotations_saved"
	ActionVideoAppended    ActivityAction = "video_appended"
)

// Activity is one successful write against a study's backing store
type Activity struct {
	gorm.Model
	StudyID string         `json:"study_id" gorm:"not null;index"`
	ModelID string         `json:"model_id,omitempty" gorm:"index"`
	Action  ActivityAction `json:"action" gorm:"not null"`
	Count   int            `json:"count"`            // annotations written, or ledger length after append
	Subject string         `json:"subject,omitempty"` // video name for ledger appends
	Client  string         `json:"client,omitempty"`  // remote address of the writer
}

// TableName returns the table name for the Activity model
func (Activity) TableName() string {
	return "study_activity"
}
