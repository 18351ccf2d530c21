package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand(t *testing.T) {
	dir := useTempSettings(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Activity database ready")

	_, err = os.Stat(filepath.Join(dir, "data", "activity.db"))
	assert.NoError(t, err)
}

func TestMigrateCommandUnwritablePath(t *testing.T) {
	dir := useTempSettings(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	t.Setenv("STUDY_DATABASE_PATH", filepath.Join(blocker, "activity.db"))

	_, err := execute(t, "migrate")
	assert.Error(t, err)
}
