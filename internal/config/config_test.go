package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when config file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, 8181, cfg.Port)
		assert.Equal(t, "Sheet1!A2:M100", cfg.Dashboard.Range)
		assert.Equal(t, 30*time.Second, cfg.Dashboard.RefreshInterval)
		assert.Equal(t, "Sheet1!A:E", cfg.LogSheet.Range)
		assert.Equal(t, "session", cfg.Session.CookieName)
	})

	t.Run("should override defaults from yaml file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := "host: https://expenses.example.com\n" +
			"dashboard:\n  range: Data!A2:M500\n  refreshinterval: 1m\n" +
			"logsheet:\n  id: log-sheet\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://expenses.example.com", cfg.Host)
		assert.Equal(t, "Data!A2:M500", cfg.Dashboard.Range)
		assert.Equal(t, time.Minute, cfg.Dashboard.RefreshInterval)
		assert.Equal(t, "log-sheet", cfg.LogSheet.Id)
		assert.Equal(t, "Sheet1!A:E", cfg.LogSheet.Range)
	})

	t.Run("should override file values from environment", func(t *testing.T) {
		// given
		t.Setenv("EXPENSES_GOOGLE_CLIENTID", "client-id")
		t.Setenv("EXPENSES_DB_HOST", "db.internal")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "client-id", cfg.Google.ClientId)
		assert.Equal(t, "db.internal", cfg.Database.Host)
	})
}
