package viewer

// EventKind names a state mutation
type EventKind string

const (
	EventStudyLoaded          EventKind = "study_loaded"
	EventModelAdded           EventKind = "model_added"
	EventModelRemoved         EventKind = "model_removed"
	EventModelUpdated         EventKind = "model_updated"
	EventViewportUpdated      EventKind = "viewport_updated"
	EventAnnotationAdded      EventKind = "annotation_added"
	EventAnnotationRemoved    EventKind = "annotation_removed"
	EventCommentSelected      EventKind = "comment_selected"
	EventFocusCleared         EventKind = "focus_cleared"
	EventLayoutChanged        EventKind = "layout_changed"
	EventActiveViewportChange EventKind = "active_viewport_changed"
)

// Event describes one mutation. Viewport is -1 when the event is not tied
// to a single viewport.
type Event struct {
	Kind         EventKind
	ModelID      string
	AnnotationID string
	Viewport     int
}

// Listener receives events after the state lock is released
type Listener func(Event)
