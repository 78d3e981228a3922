package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Manager writes export artifacts into one output directory
type Manager struct {
	outputDir string
	written   map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		written:   make(map[string]bool),
	}, nil
}

// ArtifactName returns "<prefix>-YYYY-MM-DD.<ext>" for the given day
func ArtifactName(prefix string, day time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, day.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

// Path returns the absolute location an artifact name maps to
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, filepath.Base(name))
}

// Exists reports whether an artifact is present on disk
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Save writes r to name atomically and returns the final path
func (m *Manager) Save(name string, r io.Reader) (string, error) {
	a, err := m.Create(name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(a, r); err != nil {
		a.Abort()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return a.Commit()
}

// Create opens a pending artifact. Nothing is visible under name until Commit.
func (m *Manager) Create(name string) (*Artifact, error) {
	final := m.Path(name)
	tmp, err := os.CreateTemp(m.outputDir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	return &Artifact{File: tmp, final: final, name: filepath.Base(name), m: m}, nil
}

// Written returns the artifact names committed through this manager, sorted
func (m *Manager) Written() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.written))
	for name := range m.written {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Artifact is a temp file that becomes visible under its final name on Commit
type Artifact struct {
	*os.File
	final string
	name  string
	m     *Manager
	done  bool
}

// Commit closes the temp file and renames it into place
func (a *Artifact) Commit() (string, error) {
	if a.done {
		return "", fmt.Errorf("artifact %s already finished", a.name)
	}
	a.done = true

	tmp := a.File.Name()
	if err := a.File.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp, a.final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	a.m.mu.Lock()
	a.m.written[a.name] = true
	a.m.mu.Unlock()
	return a.final, nil
}

// Abort discards the temp file. Safe to call after Commit.
func (a *Artifact) Abort() {
	if a.done {
		return
	}
	a.done = true
	tmp := a.File.Name()
	a.File.Close()
	os.Remove(tmp)
}
