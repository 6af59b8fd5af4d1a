package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cnf := defaults()
	cnf.Store = StoreConfig{Driver: "sqlite3", DSN: "file::memory:"}
	return cnf
}

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("NAME", "some-host")
	t.Setenv("URL", "http://elsewhere.example")

	provider := NewFileConfigProvider("nonexistent.yaml")
	config, err := NewConfigWithProvider(provider)
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "taf-timeline", config.App.Name)
	assert.Equal(t, "1.0.0", config.App.Version)
	assert.Equal(t, "development", config.App.Env)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, 10, config.Server.ReadTimeout)
	assert.Equal(t, 120, config.Server.IdleTimeout)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "http://avwx.rest/api/taf.php", config.Avwx.URL)
	assert.Equal(t, "https://timeline-api.getpebble.com/", config.Timeline.URL)
	assert.Equal(t, "http://mdupont.com/Pebble-Config/pebble-tafline-setup.html", config.Setup.URL)
	assert.Equal(t, "memory", config.Store.Driver)
	assert.Nil(t, config.Location.Lat)
	assert.Zero(t, config.Sync.Interval)
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TIMELINE_TOKEN", "secret")
	t.Setenv("TIMELINE_RPS", "0.5")
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("STORE_DSN", "user:pw@tcp(localhost:3306)/taf")
	t.Setenv("LOCATION_LAT", "40.6413")
	t.Setenv("LOCATION_LON", "-73.7781")
	t.Setenv("GEOCODER_API_KEY", "geo-key")
	t.Setenv("SYNC_INTERVAL", "15m")

	config, err := NewConfigWithProvider(NewFileConfigProvider("nonexistent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "test-app", config.App.Name)
	assert.Equal(t, "prod", config.App.Env)
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "secret", config.Timeline.Token)
	assert.Equal(t, 0.5, config.Timeline.RPS)
	assert.Equal(t, "mysql", config.Store.Driver)
	require.NotNil(t, config.Location.Lat)
	assert.Equal(t, 40.6413, *config.Location.Lat)
	assert.Equal(t, -73.7781, *config.Location.Lon)
	assert.Equal(t, "geo-key", config.Geocoder.APIKey)
	assert.Equal(t, 15*time.Minute, config.Sync.Interval)
	assert.True(t, config.IsProduction())
	assert.Equal(t, "prod", config.SentryZone())
}

func TestFileConfigProvider_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: from-file
log:
  level: warn
store:
  driver: sqlite3
  dsn: file:test.db
sync:
  interval: 45m
`), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	config, err := NewConfigWithProvider(NewFileConfigProvider(path))
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.App.Name)
	assert.Equal(t, "1.0.0", config.App.Version, "defaults survive a partial file")
	assert.Equal(t, "error", config.Log.Level)
	assert.Equal(t, "sqlite3", config.Store.Driver)
	assert.Equal(t, 45*time.Minute, config.Sync.Interval)
}

func TestFileConfigProvider_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

	_, err := NewFileConfigProvider(path).Load()
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	provider := NewFileConfigProvider(DefaultPath)

	assert.NoError(t, provider.Validate(validConfig()))

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name is required"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level is one of debug info warn error"},
		{"bad avwx url", func(c *Config) { c.Avwx.URL = "not a url" }, "avwx.url is not a valid url"},
		{"sql store needs dsn", func(c *Config) { c.Store.DSN = "" }, "store.dsn is required"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver is one of memory sqlite3 mysql"},
		{"latitude range", func(c *Config) { lat := 123.0; c.Location.Lat = &lat }, "location.lat is invalid (latitude)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := provider.Validate(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigHelperMethods(t *testing.T) {
	config := &Config{App: AppConfig{Env: "development"}}
	assert.True(t, config.IsDevelopment())
	assert.False(t, config.IsProduction())
	assert.Equal(t, "development", config.SentryZone())

	config.App.Env = "dev"
	assert.Equal(t, "dev", config.SentryZone())
}

func TestFileConfigProvider_LoadFromFile(t *testing.T) {
	provider := NewFileConfigProvider("nonexistent.yaml")
	config := &Config{}

	err := provider.loadFromFile(config)
	assert.NoError(t, err)
}

func TestNewConfigWithProvider(t *testing.T) {
	mockProvider := &MockConfigProvider{config: validConfig()}

	config, err := NewConfigWithProvider(mockProvider)
	require.NoError(t, err)
	assert.Equal(t, "taf-timeline", config.App.Name)

	_, err = NewConfigWithProvider(&MockConfigProvider{err: errors.New("boom")})
	assert.Error(t, err)
}

// MockConfigProvider for testing
type MockConfigProvider struct {
	config *Config
	err    error
}

func (m *MockConfigProvider) Load() (*Config, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.config, nil
}

func (m *MockConfigProvider) Validate(config *Config) error {
	return nil
}
