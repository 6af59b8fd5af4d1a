package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	App      AppConfig      `yaml:"app" envconfig:"APP"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Log      LogConfig      `yaml:"log" envconfig:"LOG"`
	Sentry   SentryConfig   `yaml:"sentry" envconfig:"SENTRY"`
	Avwx     AvwxConfig     `yaml:"avwx" envconfig:"AVWX"`
	Timeline TimelineConfig `yaml:"timeline" envconfig:"TIMELINE"`
	Setup    SetupConfig    `yaml:"setup" envconfig:"SETUP"`
	Store    StoreConfig    `yaml:"store" envconfig:"STORE"`
	Location LocationConfig `yaml:"location" envconfig:"LOCATION"`
	Geocoder GeocoderConfig `yaml:"geocoder" envconfig:"GEOCODER"`
	Sync     SyncConfig     `yaml:"sync" envconfig:"SYNC"`
}

type AppConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Version string `yaml:"version" validate:"required"`
	Env     string `yaml:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string `yaml:"port" validate:"required,numeric"`
	ReadTimeout  int    `yaml:"read_timeout" split_words:"true" validate:"min=1"`
	WriteTimeout int    `yaml:"write_timeout" split_words:"true" validate:"min=1"`
	IdleTimeout  int    `yaml:"idle_timeout" split_words:"true" validate:"min=1"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type SentryConfig struct {
	DSN string `yaml:"dsn"`
}

type AvwxConfig struct {
	URL     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout"`
}

type TimelineConfig struct {
	URL   string  `yaml:"url" validate:"required,url"`
	Token string  `yaml:"token"`
	RPS   float64 `yaml:"rps"`
}

type SetupConfig struct {
	URL string `yaml:"url" validate:"required,url"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite3 mysql"`
	DSN    string `yaml:"dsn" validate:"required_unless=Driver memory"`
}

// LocationConfig is the position used in nearest-station mode: either fixed
// coordinates or an address resolved through the geocoder.
type LocationConfig struct {
	Lat     *float64 `yaml:"lat" validate:"omitempty,latitude"`
	Lon     *float64 `yaml:"lon" validate:"omitempty,longitude"`
	Address string   `yaml:"address"`
}

type GeocoderConfig struct {
	APIKey string `yaml:"api_key" split_words:"true"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ConfigProvider interface {
	Load() (*Config, error)
	Validate(config *Config) error
}

type FileConfigProvider struct {
	path     string
	validate *validator.Validate
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	return &FileConfigProvider{
		path:     path,
		validate: validator.New(),
	}
}

// Load applies defaults, then the YAML file, then environment variables.
func (p *FileConfigProvider) Load() (*Config, error) {
	cnf := defaults()

	if err := p.loadFromFile(cnf); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", cnf); err != nil {
		return nil, errors.Wrap(err, "error environment variable parsing")
	}

	return cnf, nil
}

func (p *FileConfigProvider) loadFromFile(cnf *Config) error {
	yamlData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", p.path)
	}
	if err = yaml.Unmarshal(yamlData, cnf); err != nil {
		return errors.Wrap(err, "failed to parse YAML config")
	}
	return nil
}

func (p *FileConfigProvider) Validate(config *Config) error {
	err := p.validate.Struct(config)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s is %s", fieldPath(fe.Namespace()), describe(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath turns "Config.App.Name" into "app.name".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "required"
	case "oneof":
		return "one of " + fe.Param()
	case "url":
		return "not a valid url"
	}
	if fe.Param() != "" {
		return "invalid (" + fe.Tag() + "=" + fe.Param() + ")"
	}
	return "invalid (" + fe.Tag() + ")"
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:    "taf-timeline",
			Version: "1.0.0",
			Env:     "development",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10,
			WriteTimeout: 10,
			IdleTimeout:  120,
		},
		Log: LogConfig{Level: "info"},
		Avwx: AvwxConfig{
			URL:     "http://avwx.rest/api/taf.php",
			Timeout: 30 * time.Second,
		},
		Timeline: TimelineConfig{
			URL: "https://timeline-api.getpebble.com/",
			RPS: 2,
		},
		Setup: SetupConfig{URL: "http://mdupont.com/Pebble-Config/pebble-tafline-setup.html"},
		Store: StoreConfig{Driver: "memory"},
	}
}

func NewConfigWithProvider(provider ConfigProvider) (*Config, error) {
	cnf, err := provider.Load()
	if err != nil {
		return nil, err
	}
	if err = provider.Validate(cnf); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cnf, nil
}

func NewConfig() (*Config, error) {
	return NewConfigWithProvider(NewFileConfigProvider(DefaultPath))
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "dev" || c.App.Env == "local"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}

// SentryZone is the environment name the Sentry hook forwards for.
func (c *Config) SentryZone() string {
	switch {
	case c.IsProduction():
		return "prod"
	case c.App.Env == "dev":
		return "dev"
	}
	return c.App.Env
}
