package tempfile

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrCleared is returned by Create after the manager has been cleared.
var ErrCleared = errors.New("tempfile: manager cleared")

// Manager owns the scratch files of a single connection.
type Manager struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	dir     string
	files   []*os.File
	cleared bool
}

// NewManager creates a manager whose scratch directory will live under
// baseDir. An empty baseDir means os.TempDir().
func NewManager(baseDir, prefix string) *Manager {
	if prefix == "" {
		prefix = "conn-"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// Create creates a new scratch file matching pattern (see os.CreateTemp).
// The caller may close the file; Clear removes it either way.
func (m *Manager) Create(pattern string) (*os.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cleared {
		return nil, ErrCleared
	}

	if m.dir == "" {
		dir, err := os.MkdirTemp(m.baseDir, m.prefix+"*")
		if err != nil {
			return nil, fmt.Errorf("tempfile: create dir: %w", err)
		}
		m.dir = dir
	}

	f, err := os.CreateTemp(m.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("tempfile: create file: %w", err)
	}
	m.files = append(m.files, f)
	return f, nil
}

// Dir returns the scratch directory, or "" if nothing was created yet.
func (m *Manager) Dir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

// Len returns the number of scratch files created so far.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Clear closes and removes every scratch file and the scratch directory.
// Every file is attempted even if an earlier one fails; the failures are
// joined. Calling Clear more than once is safe.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cleared = true
	if m.dir == "" {
		return nil
	}

	var errs []error
	for _, f := range m.files {
		// Already-closed files report os.ErrClosed; that is expected.
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close %s: %w", f.Name(), err))
		}
	}
	if err := os.RemoveAll(m.dir); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", m.dir, err))
	}

	m.files = nil
	m.dir = ""
	return errors.Join(errs...)
}
