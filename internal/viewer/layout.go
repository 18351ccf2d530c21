package viewer

import "fmt"

// Layout is the viewport arrangement of the workspace
type Layout string

const (
	LayoutSingle Layout = "1"
	LayoutSplit  Layout = "1x2"
	LayoutGrid   Layout = "2x2"
)

// MaxViewports is the viewport count of the largest layout
const MaxViewports = 4

// Viewports returns how many viewports the layout shows, or 0 for an unknown layout
func (l Layout) Viewports() int {
	switch l {
	case LayoutSingle:
		return 1
	case LayoutSplit:
		return 2
	case LayoutGrid:
		return 4
	default:
		return 0
	}
}

// Valid reports whether l is one of the known layouts
func (l Layout) Valid() bool {
	return l.Viewports() > 0
}

// ParseLayout converts "1", "1x2" or "2x2" to a Layout
func ParseLayout(s string) (Layout, error) {
	l := Layout(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
	return l, nil
}
