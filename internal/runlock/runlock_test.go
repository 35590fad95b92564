package runlock

import (
	"errors"
	"os"
	"strconv"
	"testing"

	ps "github.com/mitchellh/go-ps"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

// withProcesses replaces the process table and current pid for one test.
func withProcesses(t *testing.T, self int, table map[int]string) {
	t.Helper()
	oldFind, oldPid := findProcessFunc, getpidFunc
	t.Cleanup(func() { findProcessFunc, getpidFunc = oldFind, oldPid })

	getpidFunc = func() int { return self }
	findProcessFunc = func(pid int) (ps.Process, error) {
		exe, ok := table[pid]
		if !ok {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: exe}, nil
	}
}

func writeLock(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(Path(dir), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireFresh(t *testing.T) {
	dir := t.TempDir()
	withProcesses(t, 100, map[int]string{100: "journalbot"})

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	content, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "100" {
		t.Errorf("lockfile = %q, want %q", content, "100")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(Path(dir)); !os.IsNotExist(err) {
		t.Error("lockfile should be removed after Release")
	}
}

func TestAcquireWhileRunning(t *testing.T) {
	dir := t.TempDir()
	withProcesses(t, 100, map[int]string{100: "journalbot", 55: "journalbot"})
	writeLock(t, dir, "55")

	_, err := Acquire(dir)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Acquire() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestAcquireTakesOverStaleLock(t *testing.T) {
	tests := []struct {
		name    string
		content string
		table   map[int]string
	}{
		{"dead process", "55", map[int]string{}},
		{"pid reused by another program", "55", map[int]string{55: "bash"}},
		{"malformed", "not-a-pid", map[int]string{}},
		{"empty", "", map[int]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			withProcesses(t, 100, tt.table)
			writeLock(t, dir, tt.content)

			if _, err := Acquire(dir); err != nil {
				t.Fatalf("Acquire() failed: %v", err)
			}
			content, _ := os.ReadFile(Path(dir))
			if string(content) != strconv.Itoa(100) {
				t.Errorf("lockfile = %q, want 100", content)
			}
		})
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	dir := t.TempDir()
	withProcesses(t, 100, map[int]string{})

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	writeLock(t, dir, "200")

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Error("a lockfile owned by another process must survive Release")
	}
}

func TestOwner(t *testing.T) {
	dir := t.TempDir()
	withProcesses(t, 100, map[int]string{55: "journalbot"})

	if _, running, err := Owner(dir); err != nil || running {
		t.Errorf("Owner() on empty dir = running %v, err %v", running, err)
	}

	writeLock(t, dir, "55\n")
	pid, running, err := Owner(dir)
	if err != nil || !running || pid != 55 {
		t.Errorf("Owner() = %d, %v, %v; want 55, true, nil", pid, running, err)
	}
}
