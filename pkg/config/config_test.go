package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, uint32(400), cfg.Sampling.PeriodMicros)
	assert.Equal(t, 8*1024*1024, cfg.Sampling.BufferCapacity)
	assert.Equal(t, "episodes", cfg.Storage.Dir)
	assert.Equal(t, "crank", cfg.Storage.FilePrefix)
	assert.Equal(t, "catalog.db", cfg.Storage.CatalogFile)
	assert.False(t, cfg.Console.WaitForPort)
	assert.Equal(t, 10*time.Second, cfg.Console.WaitTimeout)
	assert.Equal(t, 2*time.Second, cfg.Mock.CrankDuration)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
serial:
  port: "COM7"
  baud_rate: 230400

console:
  wait_for_port: true
  wait_timeout: 5s

sampling:
  period_usec: 500
  buffer_capacity: 1048576

storage:
  dir: "/var/lib/crankdaq"
  file_prefix: "episode"

calibration:
  vref: 3.3
  counts_per_rev: 120
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "COM7", cfg.Serial.Port)
	assert.Equal(t, 230400, cfg.Serial.BaudRate)
	assert.True(t, cfg.Console.WaitForPort)
	assert.Equal(t, 5*time.Second, cfg.Console.WaitTimeout)
	assert.Equal(t, uint32(500), cfg.Sampling.PeriodMicros)
	assert.Equal(t, 1048576, cfg.Sampling.BufferCapacity)
	assert.Equal(t, "/var/lib/crankdaq", cfg.Storage.Dir)
	assert.Equal(t, "episode", cfg.Storage.FilePrefix)
	assert.Equal(t, float32(3.3), cfg.Calibration.VRef)
	assert.Equal(t, float32(120), cfg.Calibration.CountsPerRev)
}

func TestLoad_PartialYAMLBackfillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial:\n  port: COM4\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "COM4", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate, "missing baud rate backfilled")
	assert.Equal(t, uint32(400), cfg.Sampling.PeriodMicros, "missing period backfilled")
	assert.Equal(t, "crank", cfg.Storage.FilePrefix)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampling: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Serial.Port = "COM9"
	cfg.Sampling.PeriodMicros = 200
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
