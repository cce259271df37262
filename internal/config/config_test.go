package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerrors "retaildq/internal/errors"
	"retaildq/internal/quality"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, "Unnamed Customer", cfg.Pipeline.Correction.CustomerNameDefault)
	assert.Equal(t, 0.02, cfg.Pipeline.Thresholds.CustomerInvalidEmail)
	assert.Contains(t, cfg.Pipeline.Enrichment.Geocode, "São Paulo")

	require.NoError(t, cfg.Validate())
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
server:
  port: 9090
paths:
  data_dir: /var/lib/retaildq
pipeline:
  correction:
    customer_name_default: "Cliente Sem Nome"
  thresholds:
    customer_invalid_email: 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/retaildq", cfg.Paths.DataDir)
	assert.Equal(t, "Cliente Sem Nome", cfg.Pipeline.Correction.CustomerNameDefault)
	assert.Equal(t, 0.05, cfg.Pipeline.Thresholds.CustomerInvalidEmail)
	// Untouched values keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 0.02, cfg.Pipeline.Thresholds.ProductNegativePrice)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("DQ_SERVER_PORT", "7070")
	t.Setenv("DQ_PATHS_DATA_DIR", "/tmp/dq")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/dq", cfg.Paths.DataDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.True(t, pipeerrors.HasCode(err, pipeerrors.CodeConfig))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "port out of range", doc: "server:\n  port: 70000\n"},
		{name: "bad log level", doc: "logging:\n  level: loud\n"},
		{name: "empty data dir", doc: "paths:\n  data_dir: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, pipeerrors.HasCode(err, pipeerrors.CodeConfig))
		})
	}
}

func TestPathsConfig_Layout(t *testing.T) {
	p := PathsConfig{DataDir: "/data"}

	assert.Equal(t, filepath.Join("/data", "raw"), p.Raw())
	assert.Equal(t, filepath.Join("/data", "processed"), p.Processed())
	assert.Equal(t, filepath.Join("/data", "quality"), p.Quality())
	assert.Equal(t, filepath.Join("/data", "logs", "audit.log"), p.AuditFile())
}

func TestPathsConfig_EnsureDirectories(t *testing.T) {
	p := PathsConfig{DataDir: t.TempDir()}

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.Raw(), p.Processed(), p.Quality(), p.Logs()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnrichmentConfig_Geocoder(t *testing.T) {
	e := Default().Pipeline.Enrichment

	coords := e.Geocoder().Locate("São Paulo")
	assert.Equal(t, quality.Coordinates{Latitude: -23.5505, Longitude: -46.6333}, coords)

	assert.Equal(t, quality.Coordinates{}, e.Geocoder().Locate("Atlantis"))
}
