package viewer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/killallgit/study-api/internal/models"
)

// Syncer persists session changes to a study store
type Syncer interface {
	GetStudy(ctx context.Context, studyID string) (*models.Study, error)
	SaveAnnotations(ctx context.Context, studyID, modelID string, annotations []models.Annotation) error
	AppendVideo(ctx context.Context, studyID string, video models.Video) error
}

// Session is the top-level view controller of a viewer. It owns the State
// of the open study and mirrors annotation and recording changes to the
// store. Sync failures are logged and never roll back local state.
type Session struct {
	state  *State
	syncer Syncer
	log    *zap.Logger
	now    func() time.Time
	newID  func() string

	mu        sync.RWMutex
	studyID   string
	studyName string
	videos    []models.Video
	selected  string
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithSessionLogger sets the logger used for sync failures
func WithSessionLogger(log *zap.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSessionClock overrides the clock used for annotation and recording times
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how new annotation ids are generated
func WithIDGenerator(fn func() string) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewSession creates a session backed by syncer
func NewSession(syncer Syncer, opts ...SessionOption) *Session {
	s := &Session{
		state:  NewState(),
		syncer: syncer,
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the session's state container
func (s *Session) State() *State {
	return s.state
}

// StudyID returns the id of the open study, or "" before OpenStudy
func (s *Session) StudyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.studyID
}

// StudyName returns the display name of the open study
func (s *Session) StudyName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.studyName
}

// Videos returns the ledger as fetched plus recordings made in this session
func (s *Session) Videos() []models.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Video{}, s.videos...)
}

// OpenStudy fetches a study and loads it into the state. Unlike the write
// paths a failed fetch is returned to the caller and leaves the state alone.
func (s *Session) OpenStudy(ctx context.Context, studyID string) error {
	study, err := s.syncer.GetStudy(ctx, studyID)
	if err != nil {
		return fmt.Errorf("loading study %s: %w", studyID, err)
	}

	name := study.Name
	if name == "" {
		name = studyID
	}

	s.mu.Lock()
	s.studyID = studyID
	s.studyName = name
	s.videos = append([]models.Video{}, study.Videos...)
	s.selected = ""
	s.mu.Unlock()

	s.state.Load(study)
	s.log.Info("study opened",
		zap.String("study", studyID),
		zap.Int("models", len(study.Models)),
		zap.Int("annotations", len(study.Annotations)))
	return nil
}

func (s *Session) openStudyID() (string, error) {
	id := s.StudyID()
	if id == "" {
		return "", ErrNoStudy
	}
	return id, nil
}

// AddAnnotation pins a comment on a model and persists the model's full
// annotation slice. Blank text creates nothing and returns nil.
func (s *Session) AddAnnotation(ctx context.Context, pos models.Vec3, modelID, text string) (*models.Annotation, error) {
	studyID, err := s.openStudyID()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	m, ok := s.state.Model(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}

	a := models.Annotation{
		ID:        s.newID(),
		ModelID:   modelID,
		ModelName: m.Name,
		Position:  pos,
		Text:      text,
		CreatedAt: s.now().UnixMilli(),
		Author:    models.DefaultAuthor,
	}

	slice := s.state.AddAnnotation(a)
	s.sync("annotation", func() error {
		return s.syncer.SaveAnnotations(ctx, studyID, modelID, slice)
	}, zap.String("study", studyID), zap.String("model", modelID))

	return &a, nil
}

// RemoveAnnotation deletes a comment and persists the remaining slice of
// its model. It reports false when no annotation has that id. Removing the
// selected comment also drops the camera focus on it.
func (s *Session) RemoveAnnotation(ctx context.Context, annotationID string) (bool, error) {
	studyID, err := s.openStudyID()
	if err != nil {
		return false, err
	}

	removed, remaining, ok := s.state.RemoveAnnotation(annotationID)
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	wasSelected := s.selected == annotationID
	if wasSelected {
		s.selected = ""
	}
	s.mu.Unlock()
	if wasSelected {
		s.state.ClearFocus()
	}

	s.sync("annotation removal", func() error {
		return s.syncer.SaveAnnotations(ctx, studyID, removed.ModelID, remaining)
	}, zap.String("study", studyID), zap.String("model", removed.ModelID))

	return true, nil
}

// SelectComment jumps the whole workspace to an annotation
func (s *Session) SelectComment(annotationID string) (models.Annotation, error) {
	a, err := s.state.SelectComment(annotationID)
	if err != nil {
		return a, err
	}
	s.mu.Lock()
	s.selected = a.ID
	s.mu.Unlock()
	return a, nil
}

// ShowModel adds a model to the active viewport, selecting viewport 0
// first when none is active
func (s *Session) ShowModel(modelID string) (bool, error) {
	idx := s.state.ActiveViewport()
	if idx < 0 {
		if err := s.state.SetActiveViewport(0); err != nil {
			return false, err
		}
		idx = 0
	}
	return s.state.AssignModelToViewport(idx, modelID)
}

// HideModel stops showing a model in the active viewport. The model stays
// loaded and visible elsewhere.
func (s *Session) HideModel(modelID string) (bool, error) {
	idx := s.state.ActiveViewport()
	if idx < 0 {
		return false, nil
	}
	return s.state.RemoveModelFromViewport(idx, modelID)
}

// SetModelVisibility applies a visibility toggle from the model panel to
// the canonical model and to every viewport that shows it
func (s *Session) SetModelVisibility(modelID string, visible bool) error {
	if err := s.state.SetModelVisibility(modelID, visible); err != nil {
		return err
	}
	return s.eachViewportShowing(modelID, func(idx int) error {
		return s.state.SetViewportModelVisibility(idx, modelID, visible)
	})
}

// SetModelOpacity applies an opacity change from the model panel to the
// canonical model and to every viewport that shows it
func (s *Session) SetModelOpacity(modelID string, opacity float64) error {
	if err := s.state.SetModelOpacity(modelID, opacity); err != nil {
		return err
	}
	return s.eachViewportShowing(modelID, func(idx int) error {
		return s.state.SetViewportModelOpacity(idx, modelID, opacity)
	})
}

func (s *Session) eachViewportShowing(modelID string, fn func(int) error) error {
	for idx := 0; idx < s.state.Layout().Viewports(); idx++ {
		shown, err := s.state.ViewportModels(idx)
		if err != nil {
			return err
		}
		for _, m := range shown {
			if m.ID != modelID {
				continue
			}
			if err := fn(idx); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// RecordingFilename names a recording finished at t
func RecordingFilename(t time.Time) string {
	return fmt.Sprintf("recording-%d.webm", t.UnixMilli())
}

// RecordingFinished registers a finished screen recording with the study's
// video ledger and returns the reference that was sent
func (s *Session) RecordingFinished(ctx context.Context, filename string) (models.Video, error) {
	studyID, err := s.openStudyID()
	if err != nil {
		return models.Video{}, err
	}
	if filename == "" {
		filename = RecordingFilename(s.now())
	}

	video := models.Video{
		Name: filename,
		URL:  fmt.Sprintf("/samples/%s/videos/%s", url.PathEscape(studyID), url.PathEscape(filename)),
	}

	s.mu.Lock()
	s.videos = append(s.videos, video)
	s.mu.Unlock()

	s.sync("video reference", func() error {
		return s.syncer.AppendVideo(ctx, studyID, video)
	}, zap.String("study", studyID), zap.String("video", filename))

	return video, nil
}

// sync runs one store call. Failures are logged and swallowed.
func (s *Session) sync(what string, call func() error, fields ...zap.Field) {
	if err := call(); err != nil {
		s.log.Warn("failed to sync "+what, append(fields, zap.Error(err))...)
	}
}
