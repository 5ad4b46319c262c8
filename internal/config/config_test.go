package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: insight
  password: filepass
  name: insight
ai:
  provider: vertex
  location: us-central1
trends:
  schedule: "30 5 * * *"
  windowDays: 14
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "30 5 * * *", cfg.Trends.Schedule)
	assert.Equal(t, 14, cfg.Trends.WindowDays)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "vertex", cfg.AI.Provider)
	assert.Len(t, cfg.Media.FrameURLs, 2)
	assert.Equal(t, "gs://example-bucket/audio.mp3", cfg.Media.AudioURI)
	assert.Equal(t, "0 6 * * *", cfg.Trends.Schedule)
	assert.Equal(t, 7, cfg.Trends.WindowDays)
}

func TestLoadEnvPasswordOverride(t *testing.T) {
	t.Setenv("DB_PASSWORD", "env-secret")
	path := writeConfig(t, `
database:
  password: filepass
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Database.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	var cfg Config
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 3306
	cfg.Database.Name = "insight"

	assert.Equal(t,
		"u:p@tcp(localhost:3306)/insight?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
}

func TestPostgresDSN(t *testing.T) {
	var cfg Config
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "insight"

	assert.Equal(t,
		"host=localhost port=5432 user=u password=p dbname=insight sslmode=disable",
		cfg.PostgresDSN())
}
