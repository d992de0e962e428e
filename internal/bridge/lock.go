package bridge

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Lock is a single-instance advisory lock backed by a PID file. No
// flock-style library appears anywhere in the example pack, so this is
// the stdlib-justified exception recorded in DESIGN.md: a PID file plus
// a liveness check via signal 0 is the whole mechanism.
type Lock struct {
	path string
}

// Acquire claims path, failing if another live process already holds it.
// A PID file left behind by a process that no longer exists is treated
// as stale and reclaimed.
func Acquire(path string) (*Lock, error) {
	if err := checkStale(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("bridge: lock %s: another instance may be running (remove the file if it is stale)", path)
		}
		return nil, fmt.Errorf("bridge: lock %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("bridge: lock %s: write pid: %w", path, err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	os.Remove(l.path)
}

func checkStale(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("bridge: lock %s: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		os.Remove(path)
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(path)
		return nil
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		os.Remove(path)
		return nil
	}
	return fmt.Errorf("bridge: lock %s: pid %d is still running", path, pid)
}
