package cmd

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/killallgit/study-api/pkg/config"
)

// useTempSettings points the storage and database settings at a temp dir
func useTempSettings(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STUDY_STORAGE_SAMPLES_DIR", filepath.Join(dir, "samples"))
	t.Setenv("STUDY_DATABASE_PATH", filepath.Join(dir, "data", "activity.db"))
	t.Setenv("STUDY_LOGGING_FORMAT", "console")
	require.NoError(t, config.Init())
	return dir
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServeCommandHelp(t *testing.T) {
	out, err := execute(t, "serve", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Start the Study Sync API server")
}

func TestServeCommandInvalidPort(t *testing.T) {
	_, err := execute(t, "serve", "--port", "invalid")
	assert.Error(t, err)
}

func TestServeCommandRunsUntilCancelled(t *testing.T) {
	dir := useTempSettings(t)
	port := freePort(t)
	t.Cleanup(func() { serverHost, serverPort, samplesDir = "", 0, "" })

	cmd := NewRootCmd()
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	cmd.SetContext(ctx)
	serveCmd.SetContext(ctx)
	cmd.SetArgs([]string{"serve", "--host", "127.0.0.1", "--port", strconv.Itoa(port)})

	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(dir, "samples"))
	assert.NoError(t, err, "samples root is created on startup")
	_, err = os.Stat(filepath.Join(dir, "data", "activity.db"))
	assert.NoError(t, err, "activity database is created on startup")
}

func TestBuildDependencies(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage:    config.StorageConfig{SamplesDir: filepath.Join(dir, "samples")},
		Monitoring: config.MonitoringConfig{Enabled: true},
	}

	deps, cleanup, err := buildDependencies(cfg, zap.NewNop())
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, deps.Activity, "empty database path disables the activity log")
	assert.Nil(t, deps.DB)
	assert.NotNil(t, deps.Metrics)

	cfg.Database.Path = filepath.Join(dir, "activity.db")
	cfg.Monitoring.Enabled = false
	deps, cleanup, err = buildDependencies(cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, deps.Activity)
	assert.NoError(t, deps.DB.HealthCheck())
	assert.Nil(t, deps.Metrics)
}

func TestLanURLs(t *testing.T) {
	assert.Equal(t, []string{"http://127.0.0.1:3001"}, lanURLs("127.0.0.1", 3001))

	urls := lanURLs("0.0.0.0", 3001)
	require.NotEmpty(t, urls)
	assert.Equal(t, "http://localhost:3001", urls[0])
	for _, u := range urls {
		assert.True(t, strings.HasSuffix(u, ":3001"), u)
		assert.NotContains(t, u, "127.0.0.1")
	}
}
