package viewer

import (
	"fmt"
	"sync"

	"github.com/killallgit/study-api/internal/models"
)

// viewState is a viewport's local opacity and visibility for one model
type viewState struct {
	opacity float64
	visible bool
}

// viewport holds an ordered set of model ids and their local view settings.
// Everything else about a model is resolved from the arena.
type viewport struct {
	order []string
	local map[string]viewState
}

func newViewport() *viewport {
	return &viewport{local: make(map[string]viewState)}
}

func (v *viewport) has(id string) bool {
	_, ok := v.local[id]
	return ok
}

func (v *viewport) put(id string, vs viewState) {
	if !v.has(id) {
		v.order = append(v.order, id)
	}
	v.local[id] = vs
}

func (v *viewport) drop(id string) bool {
	if !v.has(id) {
		return false
	}
	delete(v.local, id)
	for i, oid := range v.order {
		if oid == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return true
}

// State is the in-memory state of the active study in a viewer.
// It is safe for concurrent use.
type State struct {
	mu sync.RWMutex

	order       []string
	arena       map[string]models.Model
	annotations []models.Annotation

	layout    Layout
	viewports [MaxViewports]*viewport
	active    int

	focus    models.Vec3
	hasFocus bool

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewState returns an empty state with the single layout and no active viewport
func NewState() *State {
	s := &State{
		arena:     make(map[string]models.Model),
		layout:    LayoutSingle,
		active:    -1,
		listeners: make(map[int]Listener),
	}
	for i := range s.viewports {
		s.viewports[i] = newViewport()
	}
	return s
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it
func (s *State) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *State) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.listenersMu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func (s *State) checkViewport(idx int) error {
	if idx < 0 || idx >= s.layout.Viewports() {
		return fmt.Errorf("%w: %d (layout %s)", ErrViewportRange, idx, s.layout)
	}
	return nil
}

// Load replaces models and annotations with the study's. Viewport 0 shows
// every model with its current opacity and visibility, the other viewports
// are cleared, viewport 0 becomes active and the focus is cleared.
func (s *State) Load(study *models.Study) {
	s.mu.Lock()
	s.order = s.order[:0]
	s.arena = make(map[string]models.Model)
	s.annotations = nil
	for i := range s.viewports {
		s.viewports[i] = newViewport()
	}

	if study != nil {
		for _, m := range study.Models {
			if _, dup := s.arena[m.ID]; dup {
				continue
			}
			s.order = append(s.order, m.ID)
			s.arena[m.ID] = m
			s.viewports[0].put(m.ID, viewState{opacity: m.Opacity, visible: m.Visible})
		}
		s.annotations = append(s.annotations, study.Annotations...)
	}

	s.active = 0
	s.hasFocus = false
	s.focus = models.Vec3{}
	s.mu.Unlock()

	s.emit(Event{Kind: EventStudyLoaded, Viewport: -1})
}

// AddModel appends a model to the canonical list
func (s *State) AddModel(m models.Model) error {
	s.mu.Lock()
	if _, dup := s.arena[m.ID]; dup {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateModel, m.ID)
	}
	s.order = append(s.order, m.ID)
	s.arena[m.ID] = m
	s.mu.Unlock()

	s.emit(Event{Kind: EventModelAdded, ModelID: m.ID, Viewport: -1})
	return nil
}

// RemoveModel drops a model from the canonical list and from every viewport.
// Annotations of the model are kept.
func (s *State) RemoveModel(id string) bool {
	s.mu.Lock()
	if _, ok := s.arena[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.arena, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, vp := range s.viewports {
		vp.drop(id)
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventModelRemoved, ModelID: id, Viewport: -1})
	return true
}

// SetModelOpacity sets the canonical opacity, clamped to [0,1].
// Viewports that already show the model keep their own value.
func (s *State) SetModelOpacity(id string, opacity float64) error {
	return s.updateModel(id, func(m *models.Model) { m.Opacity = clamp01(opacity) })
}

// SetModelVisibility sets the canonical visibility.
// Viewports that already show the model keep their own value.
func (s *State) SetModelVisibility(id string, visible bool) error {
	return s.updateModel(id, func(m *models.Model) { m.Visible = visible })
}

func (s *State) updateModel(id string, fn func(*models.Model)) error {
	s.mu.Lock()
	m, ok := s.arena[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	fn(&m)
	s.arena[id] = m
	s.mu.Unlock()

	s.emit(Event{Kind: EventModelUpdated, ModelID: id, Viewport: -1})
	return nil
}

// SetViewportModelOpacity sets the opacity of a model inside one viewport
func (s *State) SetViewportModelOpacity(idx int, id string, opacity float64) error {
	return s.updateViewport(idx, id, func(vs *viewState) { vs.opacity = clamp01(opacity) })
}

// SetViewportModelVisibility sets the visibility of a model inside one viewport
func (s *State) SetViewportModelVisibility(idx int, id string, visible bool) error {
	return s.updateViewport(idx, id, func(vs *viewState) { vs.visible = visible })
}

func (s *State) updateViewport(idx int, id string, fn func(*viewState)) error {
	s.mu.Lock()
	if err := s.checkViewport(idx); err != nil {
		s.mu.Unlock()
		return err
	}
	vp := s.viewports[idx]
	vs, ok := vp.local[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s in viewport %d", ErrModelNotInView, id, idx)
	}
	fn(&vs)
	vp.local[id] = vs
	s.mu.Unlock()

	s.emit(Event{Kind: EventViewportUpdated, ModelID: id, Viewport: idx})
	return nil
}

// AssignModelToViewport shows a model in a viewport, visible at full
// opacity. Assigning a model the viewport already shows is a no-op and
// reports false.
func (s *State) AssignModelToViewport(idx int, modelID string) (bool, error) {
	s.mu.Lock()
	if err := s.checkViewport(idx); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if _, ok := s.arena[modelID]; !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	vp := s.viewports[idx]
	if vp.has(modelID) {
		s.mu.Unlock()
		return false, nil
	}
	vp.put(modelID, viewState{opacity: 1, visible: true})
	s.mu.Unlock()

	s.emit(Event{Kind: EventViewportUpdated, ModelID: modelID, Viewport: idx})
	return true, nil
}

// RemoveModelFromViewport stops showing a model in one viewport
func (s *State) RemoveModelFromViewport(idx int, modelID string) (bool, error) {
	s.mu.Lock()
	if err := s.checkViewport(idx); err != nil {
		s.mu.Unlock()
		return false, err
	}
	removed := s.viewports[idx].drop(modelID)
	s.mu.Unlock()

	if removed {
		s.emit(Event{Kind: EventViewportUpdated, ModelID: modelID, Viewport: idx})
	}
	return removed, nil
}

// AddAnnotation appends to the canonical list and returns the owning
// model's full annotation slice
func (s *State) AddAnnotation(a models.Annotation) []models.Annotation {
	s.mu.Lock()
	s.annotations = append(s.annotations, a)
	slice := models.FilterByModel(s.annotations, a.ModelID)
	s.mu.Unlock()

	s.emit(Event{Kind: EventAnnotationAdded, ModelID: a.ModelID, AnnotationID: a.ID, Viewport: -1})
	return slice
}

// RemoveAnnotation removes an annotation by id and returns it together with
// the owning model's remaining slice
func (s *State) RemoveAnnotation(id string) (models.Annotation, []models.Annotation, bool) {
	s.mu.Lock()
	idx := -1
	for i, a := range s.annotations {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.Annotation{}, nil, false
	}

	removed := s.annotations[idx]
	s.annotations = append(s.annotations[:idx], s.annotations[idx+1:]...)
	remaining := models.FilterByModel(s.annotations, removed.ModelID)
	s.mu.Unlock()

	s.emit(Event{Kind: EventAnnotationRemoved, ModelID: removed.ModelID, AnnotationID: id, Viewport: -1})
	return removed, remaining, true
}

// SelectComment makes the annotation's model the only visible model in the
// canonical list and in every viewport, and focuses its position
func (s *State) SelectComment(annotationID string) (models.Annotation, error) {
	s.mu.Lock()
	var (
		target models.Annotation
		found  bool
	)
	for _, a := range s.annotations {
		if a.ID == annotationID {
			target, found = a, true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return models.Annotation{}, fmt.Errorf("%w: %s", ErrUnknownAnnotation, annotationID)
	}

	for id, m := range s.arena {
		m.Visible = id == target.ModelID
		s.arena[id] = m
	}
	for _, vp := range s.viewports {
		for id, vs := range vp.local {
			vs.visible = id == target.ModelID
			vp.local[id] = vs
		}
	}
	s.focus = target.Position
	s.hasFocus = true
	s.mu.Unlock()

	s.emit(Event{Kind: EventCommentSelected, ModelID: target.ModelID, AnnotationID: target.ID, Viewport: -1})
	return target, nil
}

// SetLayout switches the layout. Viewport contents are kept across
// switches; an active viewport the new layout hides falls back to 0.
func (s *State) SetLayout(l Layout) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLayout, string(l))
	}

	s.mu.Lock()
	if s.layout == l {
		s.mu.Unlock()
		return nil
	}
	s.layout = l
	events := []Event{{Kind: EventLayoutChanged, Viewport: -1}}
	if s.active >= l.Viewports() {
		s.active = 0
		events = append(events, Event{Kind: EventActiveViewportChange, Viewport: 0})
	}
	s.mu.Unlock()

	s.emit(events...)
	return nil
}

// SetActiveViewport focuses a viewport; -1 clears the selection
func (s *State) SetActiveViewport(idx int) error {
	s.mu.Lock()
	if idx != -1 {
		if err := s.checkViewport(idx); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	changed := s.active != idx
	s.active = idx
	s.mu.Unlock()

	if changed {
		s.emit(Event{Kind: EventActiveViewportChange, Viewport: idx})
	}
	return nil
}

// ClearFocus drops the focus target
func (s *State) ClearFocus() {
	s.mu.Lock()
	had := s.hasFocus
	s.hasFocus = false
	s.focus = models.Vec3{}
	s.mu.Unlock()

	if had {
		s.emit(Event{Kind: EventFocusCleared, Viewport: -1})
	}
}

// Layout returns the current layout
func (s *State) Layout() Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// ActiveViewport returns the active viewport index, or -1
func (s *State) ActiveViewport() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Focus returns the focus target and whether one is set
func (s *State) Focus() (models.Vec3, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focus, s.hasFocus
}

// Models returns a copy of the canonical model list in insertion order
func (s *State) Models() []models.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Model, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.arena[id])
	}
	return out
}

// Model returns one canonical model
func (s *State) Model(id string) (models.Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.arena[id]
	return m, ok
}

// ViewportModels resolves a viewport's models: arena records with the
// viewport's local opacity and visibility applied
func (s *State) ViewportModels(idx int) ([]models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx < 0 || idx >= MaxViewports {
		return nil, fmt.Errorf("%w: %d", ErrViewportRange, idx)
	}

	vp := s.viewports[idx]
	out := make([]models.Model, 0, len(vp.order))
	for _, id := range vp.order {
		m, ok := s.arena[id]
		if !ok {
			continue
		}
		vs := vp.local[id]
		m.Opacity = vs.opacity
		m.Visible = vs.visible
		out = append(out, m)
	}
	return out, nil
}

// Annotations returns a copy of the canonical annotation list
func (s *State) Annotations() []models.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Annotation{}, s.annotations...)
}

// AnnotationsForModel returns the annotations owned by one model
func (s *State) AnnotationsForModel(modelID string) []models.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FilterByModel(s.annotations, modelID)
}
