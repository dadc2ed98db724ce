package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("JWT_TTL", "")

	cfg := Load()

	assert.Equal(t, "galactic-postbox", cfg.AppName)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.False(t, cfg.UsesMemoryStore())
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(5<<20), cfg.AttachmentMaxBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("NOTIFY_ENABLED", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.UsesMemoryStore())
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.True(t, cfg.NotifyEnabled)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestSplitLists(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: " http://a.test , ,http://b.test",
		ElasticsearchAddrs: "",
	}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Empty(t, cfg.ESAddrs())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "n", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", cfg.PostgresDSN())
}
