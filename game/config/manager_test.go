package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/gamerooms/game/engine/race"
)

func writePreset(t *testing.T, dir, filename, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(body), 0644))
}

const sprintYAML = `
description: Short and fast
difficulty: easy
distance: 1200
lives: 4
mode: battle
item_kinds: [speed, bomb]
`

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		dir := t.TempDir()
		writePreset(t, dir, "x.yaml", "lives: 1")
		_, err := NewManager(filepath.Join(dir, "x.yaml"))
		assert.Error(t, err)
	})

	t.Run("builtins only", func(t *testing.T) {
		m, err := NewManager("")
		require.NoError(t, err)

		cfg, err := m.Preset("hard")
		require.NoError(t, err)
		assert.Equal(t, "hard", cfg.Name)
	})
}

func TestPresetFromFile(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "sprint.yaml", sprintYAML)

	m, err := NewManager(dir)
	require.NoError(t, err)

	cfg, err := m.Preset("sprint")
	require.NoError(t, err)

	assert.Equal(t, "sprint", cfg.Name)
	assert.Equal(t, "Short and fast", cfg.Description)
	assert.Equal(t, 1200.0, cfg.Distance)
	assert.Equal(t, 4, cfg.Lives)
	assert.Equal(t, race.ModeBattle, cfg.Mode)
	assert.Equal(t, []race.ItemKind{race.ItemSpeed, race.ItemBomb}, cfg.ItemKinds)

	normal, _ := race.BuiltinPreset(race.DefaultPreset)
	assert.Equal(t, normal.Gravity, cfg.Gravity, "unset fields inherit the default preset")
}

func TestPresetYMLExtension(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "alt.yml", "lives: 2")

	m, err := NewManager(dir)
	require.NoError(t, err)

	cfg, err := m.Preset("alt")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Lives)
}

func TestFileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "easy.yaml", "lives: 9")

	m, err := NewManager(dir)
	require.NoError(t, err)

	cfg, err := m.Preset("easy")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Lives)
}

func TestPresetErrors(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "broken.yaml", "lives: [")
	writePreset(t, dir, "invalid.yaml", "lives: 0")

	m, err := NewManager(dir)
	require.NoError(t, err)

	_, err = m.Preset("missing")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = m.Preset("../etc/passwd")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = m.Preset("broken")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = m.Preset("invalid")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPresetReturnsCopy(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	a, err := m.Preset("normal")
	require.NoError(t, err)
	a.Lives = 10
	a.ItemKinds[0] = race.ItemTrap

	b, err := m.Preset("normal")
	require.NoError(t, err)
	assert.Equal(t, 3, b.Lives)
	assert.NotEqual(t, race.ItemTrap, b.ItemKinds[0])
}

func TestDefaultPreset(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	cfg, err := m.Preset("")
	require.NoError(t, err)
	assert.Equal(t, race.DefaultPreset, cfg.Name)

	require.NoError(t, m.SetDefault("hard"))
	cfg, err = m.Preset("")
	require.NoError(t, err)
	assert.Equal(t, "hard", cfg.Name)

	assert.ErrorIs(t, m.SetDefault("missing"), ErrConfigNotFound)
	assert.Equal(t, "hard", m.DefaultName())
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "sprint.yaml", sprintYAML)
	writePreset(t, dir, "invalid.yaml", "lives: 0")
	writePreset(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	m, err := NewManager(dir)
	require.NoError(t, err)

	presets, err := m.List()
	require.NoError(t, err)

	var ids []string
	for _, p := range presets {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"easy", "hard", "normal", "sprint"}, ids)

	sprint := presets[3]
	assert.Equal(t, SourceFile, sprint.Source)
	assert.Equal(t, race.ModeBattle, sprint.Mode)
	assert.Equal(t, SourceBuiltin, presets[0].Source)
}

func TestRefresh(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "tweak.yaml", "lives: 2")

	m, err := NewManager(dir)
	require.NoError(t, err)

	cfg, err := m.Preset("tweak")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Lives)

	writePreset(t, dir, "tweak.yaml", "lives: 6")
	cfg, _ = m.Preset("tweak")
	assert.Equal(t, 2, cfg.Lives, "cached until refreshed")

	m.Refresh()
	cfg, err = m.Preset("tweak")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Lives)
}

func TestConcurrentPreset(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "sprint.yaml", sprintYAML)

	m, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := m.Preset("sprint")
			assert.NoError(t, err)
			assert.Equal(t, 1200.0, cfg.Distance)
		}()
	}
	wg.Wait()
}
