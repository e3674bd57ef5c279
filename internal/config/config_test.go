package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pterrors "github.com/producttrack/producttrack/internal/errors"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.API.URL)
	assert.Equal(t, DefaultTimeout, cfg.API.Timeout)
	assert.Equal(t, "text", cfg.Defaults.Format)
	assert.Equal(t, filepath.Join(home, LogFileName), cfg.Logging.File)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	content := `api:
  url: https://api.example.com/api
  timeout: 5s
defaults:
  format: json
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(Path(home), []byte(content), 0o600))

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api", cfg.API.URL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "json", cfg.Defaults.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format, "unset keys keep defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(Path(home), []byte("api:\n  url: https://file.example.com\n"), 0o600))

	t.Setenv("PRODUCTTRACK_API_URL", "https://env.example.com")
	t.Setenv("PRODUCTTRACK_TIMEOUT", "2m")
	t.Setenv("PRODUCTTRACK_NO_COLOR", "true")
	t.Setenv("PRODUCTTRACK_TOKEN_SECRET", "s3cret")

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.URL)
	assert.Equal(t, 2*time.Minute, cfg.API.Timeout)
	assert.True(t, cfg.Defaults.NoColor)
	assert.Equal(t, "s3cret", cfg.Session.TokenSecret)
}

func TestBareEnvNamesAreIgnored(t *testing.T) {
	t.Setenv("API_URL", "https://bare.example.com")
	t.Setenv("LOG_LEVEL", "nonsense")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.API.URL)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("PRODUCTTRACK_TIMEOUT", "soon")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeConfigEnv))
}

func TestCorruptFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(Path(home), []byte("api: [unclosed"), 0o600))

	_, err := Load(home)
	require.Error(t, err)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeFileUnmarshal))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.API.URL = "/api" }},
		{"ftp url", func(c *Config) { c.API.URL = "ftp://host/api" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"bad format", func(c *Config) { c.Defaults.Format = "xml" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeConfigInvalid))
		})
	}
}

func TestGetSet(t *testing.T) {
	c := Default()

	for _, key := range Keys {
		_, err := c.Get(key)
		assert.NoError(t, err, key)
	}

	require.NoError(t, c.Set("api.timeout", "10s"))
	v, err := c.Get("api.timeout")
	require.NoError(t, err)
	assert.Equal(t, "10s", v)

	require.NoError(t, c.Set("defaults.no_color", "true"))
	assert.True(t, c.Defaults.NoColor)

	err = c.Set("defaults.format", "xml")
	require.Error(t, err)
	assert.Equal(t, "text", c.Defaults.Format, "failed set leaves config unchanged")

	_, err = c.Get("providers.default")
	assert.Error(t, err)
	assert.Error(t, c.Set("nope", "x"))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	c := Default()
	require.NoError(t, c.Set("api.url", "https://saved.example.com"))
	require.NoError(t, Save(c, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestRedacted(t *testing.T) {
	c := Default()
	c.Session.TokenSecret = "s3cret"

	r := c.Redacted()
	assert.Equal(t, "********", r.Session.TokenSecret)
	assert.Equal(t, "s3cret", c.Session.TokenSecret)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")), "missing file is fine")

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRODUCTTRACK_FORMAT=yaml\n"), 0o600))
	t.Setenv("PRODUCTTRACK_FORMAT", "")
	require.NoError(t, os.Unsetenv("PRODUCTTRACK_FORMAT"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "yaml", os.Getenv("PRODUCTTRACK_FORMAT"))
}

func TestResolveHome(t *testing.T) {
	got, err := ResolveHome("/tmp/explicit")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit", got)

	t.Setenv("PRODUCTTRACK_HOME", "/tmp/from-env")
	got, err = ResolveHome("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", got)
}

func TestStatePassphraseIsEnvOnly(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PRODUCTTRACK_STATE_PASSPHRASE", "correct horse")

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "correct horse", cfg.Session.StatePassphrase)

	require.NoError(t, Save(cfg, Path(home)))
	data, err := os.ReadFile(Path(home))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correct horse")
}
