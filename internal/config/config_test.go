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
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "sqlite://portal.db")
		t.Setenv("JWT_SECRET", "access")
		t.Setenv("JWT_REFRESH_SECRET", "refresh")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, 800*time.Millisecond, cfg.Auth.LoginDelay)
		assert.True(t, cfg.Auth.AllowLegacyDefaults)
		assert.Equal(t, "gemini-3-flash-preview", cfg.Gemini.TextModel)
		assert.Equal(t, []string{"meron", "sanbata", "selima", "genet"}, cfg.DomainOverrides["dawit"])
	})

	t.Run("Overrides From Env", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "sqlite://portal.db")
		t.Setenv("JWT_SECRET", "access")
		t.Setenv("JWT_REFRESH_SECRET", "refresh")
		t.Setenv("LOGIN_DELAY", "0s")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
		t.Setenv("BCRYPT_COST", "not-a-number")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, time.Duration(0), cfg.Auth.LoginDelay)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, 12, cfg.Security.BcryptCost)
	})

	t.Run("Missing Database URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "access")
		t.Setenv("JWT_REFRESH_SECRET", "refresh")

		_, err := Load()
		assert.EqualError(t, err, "DATABASE_URL is required")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Environment: "development"},
			Database: DatabaseConfig{URL: "sqlite://portal.db"},
			JWT:      JWTConfig{Secret: "a", RefreshSecret: "b"},
			Security: SecurityConfig{BcryptCost: 10},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("Legacy Defaults In Production", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Environment = "production"
		cfg.Auth.AllowLegacyDefaults = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("Bcrypt Cost Out Of Range", func(t *testing.T) {
		cfg := valid()
		cfg.Security.BcryptCost = 2
		assert.Error(t, cfg.Validate())
	})
}

func TestDomainOverrides(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		overrides, err := ParseDomainOverrides([]byte(`
overrides:
  - supervisor: dawit
    staff: [meron, genet]
  - supervisor: hana
    staff:
      - selima
`))
		require.NoError(t, err)
		assert.Equal(t, []string{"meron", "genet"}, overrides["dawit"])
		assert.Equal(t, []string{"selima"}, overrides["hana"])
	})

	t.Run("Missing Supervisor", func(t *testing.T) {
		_, err := ParseDomainOverrides([]byte("overrides:\n  - staff: [meron]\n"))
		assert.Error(t, err)
	})

	t.Run("From File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overrides.yaml")
		require.NoError(t, os.WriteFile(path, []byte("overrides:\n  - supervisor: dawit\n    staff: [meron]\n"), 0o600))

		overrides, err := LoadDomainOverrides(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"meron"}, overrides["dawit"])
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadDomainOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
