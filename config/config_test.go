package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "server:\n  port: 9090\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Feed.DiscussionPageSize)
	assert.Equal(t, 10, cfg.Feed.DiscussionPerTypeLimit)
	assert.Equal(t, 5, cfg.Feed.PersonalizedPerTypeLimit)
	assert.Equal(t, 10, cfg.Feed.MediaPageSize)
	assert.Equal(t, 72*time.Hour, cfg.Feed.TrendingWindow)
	assert.Equal(t, time.Minute, cfg.Presence.TTL)
	assert.Equal(t, "content.visibility_changed", cfg.NATS.Subject)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "feed:\n  media_page_size: 12\n"))
	t.Setenv("CLASSMATE_FEED_MEDIA_PAGE_SIZE", "8")
	t.Setenv("CLASSMATE_DATABASE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Feed.MediaPageSize)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"short secret":      "jwt:\n  secret: short\n",
		"unknown driver":    "database:\n  driver: mysql\n",
		"page above max":    "feed:\n  media_page_size: 60\n  media_max_page_size: 50\n",
		"zero per-type cap": "feed:\n  discussion_per_type_limit: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", writeConfig(t, body))
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
