package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetStudiesFlags(t *testing.T) {
	t.Cleanup(func() {
		studiesRemote = ""
		activityLimit = 20
	})
}

func TestStudiesInitAndList(t *testing.T) {
	dir := useTempSettings(t)
	resetStudiesFlags(t)

	out, err := execute(t, "studies", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No studies found")

	out, err = execute(t, "studies", "init", "case-001")
	require.NoError(t, err)
	assert.Contains(t, out, "Study case-001 ready")

	root := filepath.Join(dir, "samples", "case-001")
	for _, sub := range []string{"annotations", "videos"} {
		info, err := os.Stat(filepath.Join(root, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "molar.stl"), []byte("solid"), 0644))

	out, err = execute(t, "studies", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "case-001")
	assert.Contains(t, out, "/samples/case-001")
	assert.Contains(t, out, "╭")

	out, err = execute(t, "studies", "show", "case-001")
	require.NoError(t, err)
	assert.Contains(t, out, "molar.stl")
	assert.Contains(t, out, "/samples/case-001/molar.stl")
}

func TestStudiesInitRejectsBadID(t *testing.T) {
	useTempSettings(t)
	resetStudiesFlags(t)

	_, err := execute(t, "studies", "init", "..")
	assert.Error(t, err)

	_, err = execute(t, "studies", "init")
	assert.Error(t, err)
}

func TestStudiesRemote(t *testing.T) {
	useTempSettings(t)
	resetStudiesFlags(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/studies":
			_, _ = w.Write([]byte(`[{"id":"remote-7","name":"remote-7","path":"/samples/remote-7","modelCount":4}]`))
		case "/api/studies/remote-7/activity":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[{"CreatedAt":"2026-10-19T10:00:00Z","study_id":"remote-7","model_id":"jaw.ply","action":"annotations_saved","count":3,"client":"192.168.1.31"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Study not found"}`))
		}
	}))
	defer ts.Close()

	out, err := execute(t, "studies", "list", "--remote", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "remote-7")
	assert.Contains(t, out, "4")

	out, err = execute(t, "studies", "activity", "remote-7", "--remote", ts.URL, "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "annotations_saved")
	assert.Contains(t, out, "jaw.ply")
	assert.Contains(t, out, "192.168.1.31")

	_, err = execute(t, "studies", "show", "missing", "--remote", ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
