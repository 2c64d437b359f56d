// Package fsutil abstracts the filesystem operations behind the daily event
// log so the storage path can be exercised in tests without touching disk.
// Use OSFileSystem in production; MemoryFileSystem in tests.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileSystem is the set of operations the event log needs: append-only
// writes, whole-file reads, and directory listing for day-partitioned files.
type FileSystem interface {
	// OpenAppend opens the named file for appending, creating it (and
	// reporting created=true) when it does not exist yet.
	OpenAppend(name string, perm os.FileMode) (w io.WriteCloser, created bool, err error)

	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// Stat returns a FileInfo describing the named file.
	Stat(name string) (fs.FileInfo, error)

	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// Glob returns the sorted names of files matching the pattern.
	Glob(pattern string) ([]string, error)

	// Exists checks if a file or directory exists.
	Exists(name string) bool
}

// OSFileSystem implements FileSystem using the os package.
type OSFileSystem struct{}

// OpenAppend opens the named file for appending.
func (OSFileSystem) OpenAppend(name string, perm os.FileMode) (io.WriteCloser, bool, error) {
	_, statErr := os.Stat(name)
	created := os.IsNotExist(statErr)
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return nil, false, err
	}
	return f, created, nil
}

// ReadFile reads the named file.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Stat returns file info for the named file.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory path.
func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Glob returns files matching the pattern in sorted order.
func (OSFileSystem) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Exists checks if a file exists.
func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// MemoryFileSystem provides an in-memory filesystem for testing. It also
// supports fault injection: set FailAppends to make every append write
// return an error, for exercising storage-failure paths.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string]*memFile
	dirs  map[string]bool

	// FailAppends makes OpenAppend writers fail on Write when set.
	FailAppends bool
}

type memFile struct {
	data []byte
	mode os.FileMode
}

// NewMemoryFileSystem creates a new in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string]*memFile),
		dirs:  make(map[string]bool),
	}
}

// OpenAppend opens a file for appending, creating it if needed.
func (m *MemoryFileSystem) OpenAppend(name string, perm os.FileMode) (io.WriteCloser, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	f, ok := m.files[name]
	if !ok {
		f = &memFile{mode: perm}
		m.files[name] = f
	}

	return &memAppendWriter{fs: m, name: name, fail: m.FailAppends}, !ok, nil
}

// ReadFile reads a file's contents.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	f, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}

	result := make([]byte, len(f.data))
	copy(result, f.data)
	return result, nil
}

// Stat returns file info.
func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)

	if m.dirs[name] {
		return &memFileInfo{name: filepath.Base(name), isDir: true}, nil
	}

	f, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}

	return &memFileInfo{
		name: filepath.Base(name),
		size: int64(len(f.data)),
		mode: f.mode,
	}, nil
}

// MkdirAll creates directories.
func (m *MemoryFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	m.dirs[path] = true

	for p := filepath.Dir(path); p != "." && p != "/" && p != path; p = filepath.Dir(p) {
		m.dirs[p] = true
	}

	return nil
}

// Glob returns files matching the pattern in sorted order.
func (m *MemoryFileSystem) Glob(pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []string
	for name := range m.files {
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// Exists checks if a file or directory exists.
func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)

	if _, ok := m.files[name]; ok {
		return true
	}
	return m.dirs[name]
}

// Contents returns the current contents of a file as a string, for test
// assertions. Missing files return the empty string.
func (m *MemoryFileSystem) Contents(name string) string {
	data, err := m.ReadFile(name)
	if err != nil {
		return ""
	}
	return string(data)
}

// Lines splits a file's contents into non-empty lines, for test assertions.
func (m *MemoryFileSystem) Lines(name string) []string {
	var lines []string
	for _, l := range strings.Split(m.Contents(name), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// memAppendWriter appends to a memory file on each Write.
type memAppendWriter struct {
	fs   *MemoryFileSystem
	name string
	fail bool
}

func (w *memAppendWriter) Write(p []byte) (int, error) {
	if w.fail {
		return 0, &fs.PathError{Op: "write", Path: w.name, Err: fs.ErrPermission}
	}

	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()

	f, ok := w.fs.files[w.name]
	if !ok {
		return 0, &fs.PathError{Op: "write", Path: w.name, Err: fs.ErrNotExist}
	}
	f.data = append(f.data, p...)
	return len(p), nil
}

func (w *memAppendWriter) Close() error { return nil }

// memFileInfo implements fs.FileInfo.
type memFileInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	isDir bool
}

func (i *memFileInfo) Name() string       { return i.name }
func (i *memFileInfo) Size() int64        { return i.size }
func (i *memFileInfo) Mode() os.FileMode  { return i.mode }
func (i *memFileInfo) ModTime() time.Time { return time.Time{} }
func (i *memFileInfo) IsDir() bool        { return i.isDir }
func (i *memFileInfo) Sys() any           { return nil }
