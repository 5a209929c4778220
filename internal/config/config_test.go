package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServer_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServer(), cfg)
}

func TestLoadServer_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "server.yaml", `
log_level: debug
layout_file: /srv/layout.yaml
shutdown_timeout: 3s
database:
  enabled: true
  host: db
`)

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/layout.yaml", cfg.LayoutFile)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port, "untouched keys keep defaults")
}

func TestLoadServer_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server.yaml", "log_level: debug\n")
	t.Setenv("FRONTLINE_LOG_LEVEL", "warn")
	t.Setenv("FRONTLINE_DB_HOST", "pg.internal")
	t.Setenv("FRONTLINE_TRACING_ENABLED", "true")

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadServer_InvalidYAML(t *testing.T) {
	path := writeFile(t, "server.yaml", "log_level: [unclosed\n")
	_, err := LoadServer(path)
	require.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 1, DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:1/d?sslmode=disable", d.DSN())
}

const sampleLayout = `
name: skirmish
teams:
  - faction: usa
    role: attacker
  - faction: rus
    role: defender
factions:
  - id: usa
    name: United States
    short_name: USA
zones:
  - name: Base A
    type: home
    shape: cylinder
    nodes: [[0, 0]]
    radius: 50
    faction: usa
    links:
      - to: Alpha
phases:
  - type: preparation
    duration: 30s
    teams:
      - team: attacker
        name: Attackers staging
  - type: rotation
    config:
      pathing: fixed
      capacity: 16
`

func TestLoadLayout(t *testing.T) {
	l, err := LoadLayout(writeFile(t, "layout.yaml", sampleLayout))
	require.NoError(t, err)

	assert.Equal(t, "skirmish", l.Name)
	require.Len(t, l.Teams, 2)
	assert.Equal(t, "defender", l.Teams[1].Role)
	require.Len(t, l.Zones, 1)
	assert.Equal(t, [][2]int32{{0, 0}}, l.Zones[0].Nodes)
	assert.Equal(t, "Alpha", l.Zones[0].Links[0].To)

	require.Len(t, l.Phases, 2)
	assert.Equal(t, 30*time.Second, l.Phases[0].Duration)
	assert.Equal(t, "preparation", l.Phases[0].DisplayName())
	assert.Equal(t, "Attackers staging", l.Phases[0].Teams[0].Name)

	var sub struct {
		Pathing  string `yaml:"pathing"`
		Capacity int    `yaml:"capacity"`
	}
	require.NoError(t, l.Phases[1].DecodeConfig(&sub))
	assert.Equal(t, "fixed", sub.Pathing)
	assert.Equal(t, 16, sub.Capacity)

	untouched := struct{ X int }{X: 7}
	require.NoError(t, l.Phases[0].DecodeConfig(&untouched))
	assert.Equal(t, 7, untouched.X)
}

func TestLoadLayout_Errors(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadLayout(writeFile(t, "empty.yaml", "name: empty\n"))
	require.ErrorIs(t, err, ErrNoPhases)
}

func TestLoadZones(t *testing.T) {
	path := writeFile(t, "zones.yaml", `
zones:
  - name: Alpha
    type: flag
    nodes: [[0, 0], [10, 0], [10, 10]]
  - name: Bravo
    type: flag
    shape: cuboid
    nodes: [[0, 0], [5, 5]]
`)
	zones, err := LoadZones(path)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "cuboid", zones[1].Shape)
}
