package viewer

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/study-api/internal/models"
)

func testStudy() *models.Study {
	return &models.Study{
		ID:   "case-001",
		Name: "case-001",
		Models: []models.Model{
			models.NewModel("molar.stl", "http://h/samples/case-001/molar.stl", models.ModelTypeMeshSurface),
			models.NewModel("scan.splat", "http://h/samples/case-001/scan.splat", models.ModelTypeGaussianSplat),
			models.NewModel("jaw.ply", "http://h/samples/case-001/jaw.ply", models.ModelTypePointCloudOrMesh),
		},
		Annotations: []models.Annotation{
			{ID: "a1", ModelID: "molar.stl", Text: "crack", Position: models.Vec3{1, 2, 3}},
			{ID: "a2", ModelID: "scan.splat", Text: "void", Position: models.Vec3{4, 5, 6}},
			{ID: "a3", ModelID: "molar.stl", Text: "chip"},
		},
	}
}

func loadedState(t *testing.T) *State {
	t.Helper()
	s := NewState()
	s.Load(testStudy())
	return s
}

func ids(ms []models.Model) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func visibility(ms []models.Model) map[string]bool {
	out := make(map[string]bool, len(ms))
	for _, m := range ms {
		out[m.ID] = m.Visible
	}
	return out
}

func TestNewState(t *testing.T) {
	s := NewState()
	assert.Equal(t, LayoutSingle, s.Layout())
	assert.Equal(t, -1, s.ActiveViewport())
	assert.Empty(t, s.Models())
	_, ok := s.Focus()
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	s := NewState()
	require.NoError(t, s.SetLayout(LayoutGrid))
	require.NoError(t, s.SetActiveViewport(3))

	s.Load(testStudy())

	assert.Equal(t, []string{"molar.stl", "scan.splat", "jaw.ply"}, ids(s.Models()))
	assert.Len(t, s.Annotations(), 3)
	assert.Equal(t, 0, s.ActiveViewport())

	vp0, err := s.ViewportModels(0)
	require.NoError(t, err)
	if diff := cmp.Diff(s.Models(), vp0); diff != "" {
		t.Errorf("viewport 0 should mirror the study models (-want +got):\n%s", diff)
	}

	for i := 1; i < MaxViewports; i++ {
		vp, err := s.ViewportModels(i)
		require.NoError(t, err)
		assert.Empty(t, vp)
	}
}

func TestLoadResetsFocus(t *testing.T) {
	s := loadedState(t)
	_, err := s.SelectComment("a1")
	require.NoError(t, err)

	s.Load(testStudy())
	_, ok := s.Focus()
	assert.False(t, ok)
}

func TestAssignModelToViewportIsIdempotent(t *testing.T) {
	s := loadedState(t)
	require.NoError(t, s.SetLayout(LayoutSplit))

	added, err := s.AssignModelToViewport(1, "scan.splat")
	require.NoError(t, err)
	assert.True(t, added)

	require.NoError(t, s.SetViewportModelOpacity(1, "scan.splat", 0.3))

	added, err = s.AssignModelToViewport(1, "scan.splat")
	require.NoError(t, err)
	assert.False(t, added)

	vp1, err := s.ViewportModels(1)
	require.NoError(t, err)
	require.Len(t, vp1, 1)
	// the second assignment did not reset the local opacity
	assert.Equal(t, 0.3, vp1[0].Opacity)
}

func TestAssignModelToViewportResetsView(t *testing.T) {
	s := loadedState(t)
	require.NoError(t, s.SetLayout(LayoutSplit))
	require.NoError(t, s.SetModelOpacity("molar.stl", 0.2))
	require.NoError(t, s.SetModelVisibility("molar.stl", false))

	_, err := s.AssignModelToViewport(1, "molar.stl")
	require.NoError(t, err)

	vp1, err := s.ViewportModels(1)
	require.NoError(t, err)
	require.Len(t, vp1, 1)
	assert.True(t, vp1[0].Visible)
	assert.Equal(t, 1.0, vp1[0].Opacity)
}

func TestAssignModelToViewportErrors(t *testing.T) {
	s := loadedState(t)

	_, err := s.AssignModelToViewport(1, "molar.stl")
	assert.ErrorIs(t, err, ErrViewportRange, "layout 1 has a single viewport")

	_, err = s.AssignModelToViewport(0, "ghost.stl")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestCanonicalEditsDoNotPropagate(t *testing.T) {
	s := loadedState(t)

	require.NoError(t, s.SetModelOpacity("molar.stl", 0.25))
	require.NoError(t, s.SetModelVisibility("jaw.ply", false))

	m, ok := s.Model("molar.stl")
	require.True(t, ok)
	assert.Equal(t, 0.25, m.Opacity)

	vp0, err := s.ViewportModels(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, vp0[0].Opacity)
	assert.True(t, vp0[2].Visible)
}

func TestSetModelOpacityClamps(t *testing.T) {
	s := loadedState(t)

	require.NoError(t, s.SetModelOpacity("molar.stl", 1.7))
	m, _ := s.Model("molar.stl")
	assert.Equal(t, 1.0, m.Opacity)

	require.NoError(t, s.SetModelOpacity("molar.stl", -3))
	m, _ = s.Model("molar.stl")
	assert.Equal(t, 0.0, m.Opacity)

	assert.ErrorIs(t, s.SetModelOpacity("ghost", 0.5), ErrUnknownModel)
}

func TestViewportEditsAreLocal(t *testing.T) {
	s := loadedState(t)
	require.NoError(t, s.SetLayout(LayoutSplit))
	_, err := s.AssignModelToViewport(1, "molar.stl")
	require.NoError(t, err)

	require.NoError(t, s.SetViewportModelVisibility(1, "molar.stl", false))

	vp0, _ := s.ViewportModels(0)
	vp1, _ := s.ViewportModels(1)
	assert.True(t, visibility(vp0)["molar.stl"])
	assert.False(t, visibility(vp1)["molar.stl"])

	err = s.SetViewportModelOpacity(1, "jaw.ply", 0.5)
	assert.ErrorIs(t, err, ErrModelNotInView)
}

func TestRemoveModel(t *testing.T) {
	s := loadedState(t)
	require.NoError(t, s.SetLayout(LayoutSplit))
	_, err := s.AssignModelToViewport(1, "scan.splat")
	require.NoError(t, err)

	assert.True(t, s.RemoveModel("scan.splat"))
	assert.False(t, s.RemoveModel("scan.splat"))

	assert.Equal(t, []string{"molar.stl", "jaw.ply"}, ids(s.Models()))
	vp0, _ := s.ViewportModels(0)
	vp1, _ := s.ViewportModels(1)
	assert.Equal(t, []string{"molar.stl", "jaw.ply"}, ids(vp0))
	assert.Empty(t, vp1)
	// annotations outlive the model
	assert.Len(t, s.AnnotationsForModel("scan.splat"), 1)
}

func TestAddModel(t *testing.T) {
	s := loadedState(t)

	extra := models.NewModel("cast.ksplat", "http://h/samples/case-001/cast.ksplat", models.ModelTypeGaussianSplat)
	require.NoError(t, s.AddModel(extra))
	assert.ErrorIs(t, s.AddModel(extra), ErrDuplicateModel)

	assert.Equal(t, "cast.ksplat", ids(s.Models())[3])
	vp0, _ := s.ViewportModels(0)
	assert.Len(t, vp0, 3, "new models are not assigned automatically")
}

func TestAddAndRemoveAnnotation(t *testing.T) {
	s := loadedState(t)

	slice := s.AddAnnotation(models.Annotation{ID: "a4", ModelID: "molar.stl", Text: "stain"})
	assert.Equal(t, []string{"a1", "a3", "a4"}, annotationIDs(slice))

	removed, remaining, ok := s.RemoveAnnotation("a1")
	require.True(t, ok)
	assert.Equal(t, "crack", removed.Text)
	assert.Equal(t, []string{"a3", "a4"}, annotationIDs(remaining))

	_, _, ok = s.RemoveAnnotation("a1")
	assert.False(t, ok)

	assert.Equal(t, []string{"a2", "a3", "a4"}, annotationIDs(s.Annotations()))
}

func annotationIDs(as []models.Annotation) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}

func TestSelectCommentFansOut(t *testing.T) {
	s := loadedState(t)
	require.NoError(t, s.SetLayout(LayoutGrid))
	for idx := 1; idx < 4; idx++ {
		for _, id := range []string{"molar.stl", "scan.splat", "jaw.ply"} {
			_, err := s.AssignModelToViewport(idx, id)
			require.NoError(t, err)
		}
	}
	require.NoError(t, s.SetViewportModelVisibility(2, "scan.splat", false))

	a, err := s.SelectComment("a2")
	require.NoError(t, err)
	assert.Equal(t, "scan.splat", a.ModelID)

	want := map[string]bool{"molar.stl": false, "scan.splat": true, "jaw.ply": false}
	assert.Equal(t, want, visibility(s.Models()))
	for idx := 0; idx < 4; idx++ {
		vp, err := s.ViewportModels(idx)
		require.NoError(t, err)
		assert.Equal(t, want, visibility(vp), "viewport %d", idx)
	}

	focus, ok := s.Focus()
	require.True(t, ok)
	assert.Equal(t, models.Vec3{4, 5, 6}, focus)

	_, err = s.SelectComment("nope")
	assert.ErrorIs(t, err, ErrUnknownAnnotation)
}

func TestClearFocus(t *testing.T) {
	s := loadedState(t)

	var kinds []EventKind
	s.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	s.ClearFocus()
	assert.Empty(t, kinds, "nothing to clear")

	_, err := s.SelectComment("a1")
	require.NoError(t, err)
	s.ClearFocus()

	_, ok := s.Focus()
	assert.False(t, ok)
	assert.Equal(t, []EventKind{EventCommentSelected, EventFocusCleared}, kinds)
}

func TestRemoveModelFromViewport(t *testing.T) {
	s := loadedState(t)
	require.NoError(t, s.SetLayout(LayoutSplit))
	_, err := s.AssignModelToViewport(1, "jaw.ply")
	require.NoError(t, err)

	removed, err := s.RemoveModelFromViewport(1, "jaw.ply")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveModelFromViewport(1, "jaw.ply")
	require.NoError(t, err)
	assert.False(t, removed)

	vp1, _ := s.ViewportModels(1)
	assert.Empty(t, vp1)
	vp0, _ := s.ViewportModels(0)
	assert.Equal(t, []string{"molar.stl", "scan.splat", "jaw.ply"}, ids(vp0))
	_, ok := s.Model("jaw.ply")
	assert.True(t, ok, "model stays loaded")

	_, err = s.RemoveModelFromViewport(3, "jaw.ply")
	assert.ErrorIs(t, err, ErrViewportRange)
}

func TestLayoutAndActiveViewport(t *testing.T) {
	s := loadedState(t)

	assert.ErrorIs(t, s.SetActiveViewport(2), ErrViewportRange)
	assert.ErrorIs(t, s.SetLayout("3x3"), ErrUnknownLayout)

	require.NoError(t, s.SetLayout(LayoutGrid))
	require.NoError(t, s.SetActiveViewport(3))
	_, err := s.AssignModelToViewport(3, "jaw.ply")
	require.NoError(t, err)

	require.NoError(t, s.SetLayout(LayoutSplit))
	assert.Equal(t, 0, s.ActiveViewport(), "hidden active viewport falls back to 0")

	// contents survive the layout round trip
	require.NoError(t, s.SetLayout(LayoutGrid))
	vp3, _ := s.ViewportModels(3)
	assert.Equal(t, []string{"jaw.ply"}, ids(vp3))

	require.NoError(t, s.SetActiveViewport(-1))
	assert.Equal(t, -1, s.ActiveViewport())
}

func TestSubscribe(t *testing.T) {
	s := NewState()

	var (
		mu     sync.Mutex
		events []Event
	)
	unsubscribe := s.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		// listeners may read the state
		_ = s.Models()
	})

	s.Load(testStudy())
	require.NoError(t, s.SetLayout(LayoutSplit))
	_, err := s.AssignModelToViewport(1, "molar.stl")
	require.NoError(t, err)
	_, err = s.AssignModelToViewport(1, "molar.stl")
	require.NoError(t, err)

	unsubscribe()
	s.AddAnnotation(models.Annotation{ID: "late", ModelID: "molar.stl"})

	want := []Event{
		{Kind: EventStudyLoaded, Viewport: -1},
		{Kind: EventLayoutChanged, Viewport: -1},
		{Kind: EventViewportUpdated, ModelID: "molar.stl", Viewport: 1},
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLayout(t *testing.T) {
	for _, tt := range []struct {
		in    string
		count int
	}{
		{"1", 1},
		{"1x2", 2},
		{"2x2", 4},
	} {
		l, err := ParseLayout(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.count, l.Viewports())
	}

	_, err := ParseLayout("2x1")
	assert.True(t, errors.Is(err, ErrUnknownLayout))
}

func TestConcurrentAccess(t *testing.T) {
	s := loadedState(t)
	require.NoError(t, s.SetLayout(LayoutGrid))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.AssignModelToViewport(i%4, "jaw.ply")
			_ = s.SetModelOpacity("molar.stl", float64(i)/10)
			_, _ = s.ViewportModels(i % 4)
			_ = s.AnnotationsForModel("molar.stl")
		}(i)
	}
	wg.Wait()

	for idx := 0; idx < 4; idx++ {
		vp, _ := s.ViewportModels(idx)
		count := 0
		for _, m := range vp {
			if m.ID == "jaw.ply" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	}
}
