package pidfile_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/mittwald/mittcheck/pkg/pidfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidFileCanBeAcquiredAndReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "mittcheck.pid")
	f := pidfile.New(path)

	require.NoError(t, f.Acquire())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))

	require.NoError(t, f.Release())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestPidFileReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mittcheck.pid")
	// pids are bounded by pid_max, so this one cannot belong to a process
	require.NoError(t, os.WriteFile(path, []byte("2147483000"), 0o644))

	f := pidfile.New(path)
	require.NoError(t, f.Acquire())
	require.NoError(t, f.Release())
}

func TestPidFileCannotBeAcquiredWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mittcheck.pid")

	f1 := pidfile.New(path)
	require.NoError(t, f1.Acquire())
	defer func() { require.NoError(t, f1.Release()) }()

	f2 := pidfile.New(path)
	assert.Error(t, f2.Acquire())
}

func TestPidFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mittcheck.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o644))

	assert.Error(t, pidfile.New(path).Acquire())
}

func TestEmptyPathIsNoop(t *testing.T) {
	f := pidfile.New("")
	assert.NoError(t, f.Acquire())
	assert.NoError(t, f.Release())
}
