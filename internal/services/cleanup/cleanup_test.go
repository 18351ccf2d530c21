package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestIsTempFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".molar.stl.json.123456.tmp", true},
		{".videos.json.9.tmp", true},
		{"molar.stl.json", false},
		{"videos.json.lock", false},
		{"notes.tmp", false},
		{".hidden", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTempFile(tt.name), tt.name)
	}
}

func TestSweep(t *testing.T) {
	root := t.TempDir()
	staleAnn := filepath.Join(root, "case-001", "annotations", ".molar.stl.json.111.tmp")
	staleVid := filepath.Join(root, "case-002", "videos", ".videos.json.222.tmp")
	fresh := filepath.Join(root, "case-001", "annotations", ".jaw.ply.json.333.tmp")
	lock := filepath.Join(root, "case-001", "videos", "videos.json.lock")
	data := filepath.Join(root, "case-001", "annotations", "molar.stl.json")

	touch(t, staleAnn, 2*time.Hour)
	touch(t, staleVid, 2*time.Hour)
	touch(t, fresh, time.Second)
	touch(t, lock, 48*time.Hour)
	touch(t, data, 48*time.Hour)

	s := NewService(root, time.Hour, time.Minute, nil)
	assert.Equal(t, 2, s.Sweep())

	assert.False(t, exists(staleAnn))
	assert.False(t, exists(staleVid))
	assert.True(t, exists(fresh))
	assert.True(t, exists(lock))
	assert.True(t, exists(data))

	assert.Equal(t, 0, s.Sweep())
}

func TestSweepMissingRoot(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "absent"), time.Hour, time.Minute, nil)
	assert.Equal(t, 0, s.Sweep())
}

func TestStartSweepsImmediatelyAndStops(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "case-001", "annotations", ".a.json.1.tmp")
	touch(t, stale, 2*time.Hour)

	s := NewService(root, time.Hour, time.Hour, nil)
	s.Start(context.Background())
	assert.False(t, exists(stale))

	s.Start(context.Background()) // second start is a no-op
	s.Stop()
	s.Stop()
}

func TestStartRepeatsOnInterval(t *testing.T) {
	root := t.TempDir()
	s := NewService(root, time.Hour, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	stale := filepath.Join(root, "case-001", "videos", ".videos.json.7.tmp")
	touch(t, stale, 2*time.Hour)

	assert.Eventually(t, func() bool { return !exists(stale) }, 2*time.Second, 10*time.Millisecond)
}
