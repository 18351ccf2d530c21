package samples

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/study-api/api/types"
	"github.com/killallgit/study-api/internal/services/studies"
)

func setupRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	files := map[string]string{
		"case-001/molar.stl":                "solid molar",
		"case-001/jaw.ply":                  "ply",
		"case-001/scan.splat":               "splat",
		"case-001/annotations/molar.json":   "[]",
		"case-001/videos/videos.json":       "[]",
		"case-001/videos/videos.json.lock":  "",
		"case-001/videos/recording-1.webm":  "webm",
		"case-001/.secret":                  "hidden",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	store, err := studies.NewFilesystemStore(root)
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router.Group("/samples"), &types.Dependencies{Store: store})
	return router, root
}

func TestServeSamples(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContent string
	}{
		{"stl model", "/samples/case-001/molar.stl", http.StatusOK, "model/stl", "solid molar"},
		{"ply model", "/samples/case-001/jaw.ply", http.StatusOK, "application/ply", "ply"},
		{"splat model", "/samples/case-001/scan.splat", http.StatusOK, "application/octet-stream", "splat"},
		{"annotation json", "/samples/case-001/annotations/molar.json", http.StatusOK, "application/json", "[]"},
		{"recording", "/samples/case-001/videos/recording-1.webm", http.StatusOK, "video/webm", "webm"},
		{"missing file", "/samples/case-001/absent.stl", http.StatusNotFound, "", ""},
		{"lock file", "/samples/case-001/videos/videos.json.lock", http.StatusNotFound, "", ""},
		{"dot file", "/samples/case-001/.secret", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.wantType)
			}
			if tt.wantContent != "" {
				assert.Equal(t, tt.wantContent, w.Body.String())
			}
		})
	}
}

func TestServeSamplesRange(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/samples/case-001/molar.stl", nil)
	req.Header.Set("Range", "bytes=0-4")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "solid", w.Body.String())
}
