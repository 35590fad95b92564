// Package runlock keeps two bot processes from polling the same chat.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/journalbot/internal/constants"
)

var ErrAlreadyRunning = errors.New("journalbot is already running")

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// Lock is a held lockfile. Release removes it.
type Lock struct {
	path string
	pid  int
}

// Path returns the lockfile location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, constants.LockfileName)
}

// Acquire writes the current pid to the lockfile in dir. A stale lockfile,
// one naming a dead process or a process that is not journalbot, is taken
// over.
func Acquire(dir string) (*Lock, error) {
	path := Path(dir)
	pid, running, err := Owner(dir)
	if err != nil {
		return nil, err
	}
	if running && pid != getpidFunc() {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	self := getpidFunc()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(self)), 0600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return &Lock{path: path, pid: self}, nil
}

// Release removes the lockfile if it still names this process.
func (l *Lock) Release() error {
	pid, err := readPID(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if pid != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Owner reports the pid recorded in dir's lockfile and whether that
// process is a live journalbot. A missing or unreadable lockfile reports
// not running.
func Owner(dir string) (int, bool, error) {
	pid, err := readPID(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, errMalformed) {
			return 0, false, nil
		}
		return 0, false, err
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false, nil
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return pid, false, nil
	}
	return pid, true, nil
}

var errMalformed = errors.New("lockfile is malformed")

func readPID(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, errMalformed
	}
	return pid, nil
}
