package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PIDFile guards against two agents querying the same checks on one host.
// The zero path disables it.
type PIDFile struct {
	path string
	file *os.File
}

func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

func (f *PIDFile) Path() string {
	return f.path
}

// Acquire creates the file exclusively and writes the current pid into it.
// A file left behind by a process that is no longer running is replaced.
func (f *PIDFile) Acquire() error {
	if f.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create pid file directory %q", filepath.Dir(f.path))
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(f.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			if err := f.removeStale(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "failed to open pid file %q", f.path)
		}

		if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
			_ = file.Close()
			_ = os.Remove(f.path)
			return errors.Wrapf(err, "failed to write pid to pid file %q", f.path)
		}

		f.file = file
		log.WithField("path", f.path).Info("acquired pid file")
		return nil
	}

	return fmt.Errorf("pid file %q was recreated concurrently", f.path)
}

func (f *PIDFile) removeStale() error {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return errors.Wrapf(err, "failed to read pid file %q", f.path)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return errors.Wrapf(err, "failed to parse pid file %q", f.path)
	}

	if pid == os.Getpid() || processAlive(pid) {
		return fmt.Errorf("pid file %q already exists and contains the pid %d of a running process", f.path, pid)
	}

	log.WithFields(log.Fields{"path": f.path, "pid": pid}).Info("removing stale pid file")
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove pid file %q", f.path)
	}
	return nil
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Release removes a previously acquired pid file. Releasing a file that was
// never acquired is a no-op.
func (f *PIDFile) Release() error {
	if f.file == nil {
		return nil
	}

	if err := f.file.Close(); err != nil {
		return errors.Wrapf(err, "failed to close pid file %q", f.path)
	}
	f.file = nil

	if err := os.Remove(f.path); err != nil {
		return errors.Wrapf(err, "failed to remove pid file %q", f.path)
	}

	log.WithField("path", f.path).Info("released pid file")
	return nil
}
