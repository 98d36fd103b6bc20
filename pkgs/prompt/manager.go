package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed templates/tts_instructions.poml
var defaultInstructions string

// Default returns the built-in speech instruction template.
func Default() *Template {
	t, err := Parse(defaultInstructions)
	if err != nil {
		panic(fmt.Sprintf("prompt: built-in template: %v", err))
	}
	return t
}

// Manager loads templates from disk and caches them by absolute path.
type Manager struct {
	mu    sync.RWMutex
	cache map[string]*Template
}

// NewManager creates a new template manager
func NewManager() *Manager {
	return &Manager{cache: make(map[string]*Template)}
}

// LoadFile loads and caches a template file.
func (m *Manager) LoadFile(path string) (*Template, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	m.mu.RLock()
	t, ok := m.cache[absPath]
	m.mu.RUnlock()
	if ok {
		return t, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	t, err = Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", absPath, err)
	}

	m.mu.Lock()
	m.cache[absPath] = t
	m.mu.Unlock()
	return t, nil
}

// Resolve picks the template for a configuration: a file path wins over
// inline text, and with neither the built-in template is used.
func (m *Manager) Resolve(path, inline string) (*Template, error) {
	switch {
	case strings.TrimSpace(path) != "":
		return m.LoadFile(path)
	case strings.TrimSpace(inline) != "":
		return Parse(inline)
	default:
		return Default(), nil
	}
}

// ClearCache clears the template cache
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*Template)
}
