package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/gamerooms/game/engine/race"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Preset sources
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
)

var extensions = []string{".yaml", ".yml"}

// PresetInfo summarises a preset for listings
type PresetInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Mode        race.Mode `json:"mode"`
	Distance    float64   `json:"distance"`
	Lives       int       `json:"lives"`
	Source      string    `json:"source"`
}

// Manager handles preset loading and caching
type Manager struct {
	configDir   string
	defaultName string
	configs     map[string]*race.MapConfig
	mu          sync.RWMutex
}

// NewManager creates a manager reading presets from configDir. An empty
// configDir serves built-in presets only.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		info, err := os.Stat(configDir)
		if err != nil {
			return nil, fmt.Errorf("config directory %s: %w", configDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("config directory %s is not a directory", configDir)
		}
	}

	return &Manager{
		configDir:   configDir,
		defaultName: race.DefaultPreset,
		configs:     make(map[string]*race.MapConfig),
	}, nil
}

// Preset returns a copy of the named preset. Files take precedence over
// built-ins of the same name. An empty name selects the default preset.
func (m *Manager) Preset(name string) (*race.MapConfig, error) {
	if name == "" {
		name = m.DefaultName()
	}
	if !validName(name) {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	cfg, ok := m.configs[name]
	m.mu.RUnlock()
	if ok {
		return clone(cfg), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if cfg, ok := m.configs[name]; ok {
		return clone(cfg), nil
	}

	cfg, err := m.load(name)
	if err != nil {
		return nil, err
	}
	m.configs[name] = cfg
	return clone(cfg), nil
}

// load resolves a preset without caching. Callers hold the write lock.
func (m *Manager) load(name string) (*race.MapConfig, error) {
	path, err := m.findFile(name)
	if err != nil {
		return nil, err
	}
	if path == "" {
		if cfg, ok := race.BuiltinPreset(name); ok {
			return cfg, nil
		}
		return nil, ErrConfigNotFound
	}
	return readFile(path, name)
}

func (m *Manager) findFile(name string) (string, error) {
	if m.configDir == "" {
		return "", nil
	}
	for _, ext := range extensions {
		path := filepath.Join(m.configDir, name+ext)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return "", nil
}

func readFile(path, name string) (*race.MapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unset fields inherit from the default built-in
	cfg, _ := race.BuiltinPreset(race.DefaultPreset)
	cfg.Name = name
	cfg.Description = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}
	if err := race.ValidateMapConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}
	return cfg, nil
}

// List returns every loadable preset in name order. Invalid files are skipped.
func (m *Manager) List() ([]PresetInfo, error) {
	ids := make(map[string]string)
	for _, name := range race.BuiltinPresetNames() {
		ids[name] = SourceBuiltin
	}

	if m.configDir != "" {
		entries, err := os.ReadDir(m.configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read config directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			ids[strings.TrimSuffix(entry.Name(), ext)] = SourceFile
		}
	}

	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)

	presets := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		cfg, err := m.Preset(name)
		if err != nil {
			continue
		}
		presets = append(presets, PresetInfo{
			ID:          name,
			Name:        cfg.Name,
			Description: cfg.Description,
			Difficulty:  cfg.Difficulty,
			Mode:        cfg.Mode,
			Distance:    cfg.Distance,
			Lives:       cfg.Lives,
			Source:      ids[name],
		})
	}
	return presets, nil
}

// DefaultName returns the preset used when none is requested
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default preset by name
func (m *Manager) SetDefault(name string) error {
	if _, err := m.Preset(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = name
	return nil
}

// Refresh drops every cached preset so files are read again
func (m *Manager) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = make(map[string]*race.MapConfig)
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func clone(cfg *race.MapConfig) *race.MapConfig {
	c := *cfg
	c.ItemKinds = append([]race.ItemKind(nil), cfg.ItemKinds...)
	return &c
}
