package viewer

import "errors"

var (
	ErrUnknownModel      = errors.New("unknown model")
	ErrDuplicateModel    = errors.New("model already loaded")
	ErrUnknownAnnotation = errors.New("unknown annotation")
	ErrUnknownLayout     = errors.New("unknown layout")
	ErrViewportRange     = errors.New("viewport index out of range")
	ErrModelNotInView    = errors.New("model not assigned to viewport")
	ErrNoStudy           = errors.New("no study open")
)
