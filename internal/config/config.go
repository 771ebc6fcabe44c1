package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/live/internal/errors"
	"github.com/vango-dev/live/pkg/client"
	"github.com/vango-dev/live/pkg/snapshot"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "live.yaml"

	// DefaultPath is the default socket path.
	DefaultPath = "live"

	// DefaultServeAddr is the default listen address of live serve.
	DefaultServeAddr = ":8080"

	// EnvPrefix prefixes the environment overrides.
	EnvPrefix = "LIVE"
)

// Config is the complete live.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Document string         `yaml:"document"`
	Session  SessionConfig  `yaml:"session"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
	Serve    ServeConfig    `yaml:"serve"`

	// path is where the config was loaded from.
	path string
}

// ServerConfig locates the live endpoint.
type ServerConfig struct {
	// URL is the base the socket path is resolved against.
	URL string `yaml:"url"`

	// Path is the socket path. Default: "live".
	Path string `yaml:"path"`
}

// SessionConfig mirrors client.Config.
type SessionConfig struct {
	MarkerClass         string        `yaml:"marker_class"`
	ControllerAttribute string        `yaml:"controller_attribute"`
	BackoffBase         time.Duration `yaml:"backoff_base"`
	BackoffCeiling      time.Duration `yaml:"backoff_ceiling"`
	HandshakeTimeout    time.Duration `yaml:"handshake_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	MaxMessageSize      int64         `yaml:"max_message_size"`
	MaxOutbox           int           `yaml:"max_outbox"`
	ScriptTimeout       time.Duration `yaml:"script_timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// SnapshotConfig configures where the document is written on exit.
type SnapshotConfig struct {
	// Location is a file path or s3://bucket/key. Empty disables snapshots.
	Location string   `yaml:"location"`
	S3       S3Config `yaml:"s3"`
}

// S3Config configures the snapshot S3 client.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: "info".
	Level string `yaml:"level"`

	// Format is text or json. Default: "text".
	Format string `yaml:"format"`
}

// ServeConfig configures live serve.
type ServeConfig struct {
	Addr   string `yaml:"addr"`
	Script string `yaml:"script"`
}

// env holds the LIVE_* overrides.
type env struct {
	LogLevel          string `envconfig:"LOG_LEVEL"`
	LogFormat         string `envconfig:"LOG_FORMAT"`
	MetricsAddr       string `envconfig:"METRICS_ADDR"`
	S3Region          string `envconfig:"S3_REGION"`
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
}

// New returns a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads path, applies defaults and environment overrides, and
// validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("L100").
				WithLocation(path, 0).
				WithSuggestion("Create " + path + " or omit --config to use defaults")
		}
		return nil, errors.New("L101").Wrap(err).WithLocation(path, 0)
	}

	c := &Config{path: path}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.New("L102").
			Wrap(err).
			WithLocationFromYAML(path, err).
			WithSuggestion("Durations use Go syntax, e.g. 100ms or 1m30s")
	}
	return c.finish()
}

// Load returns LoadFile(path) when path is set, and the defaults with
// environment overrides otherwise.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	return (&Config{}).finish()
}

func (c *Config) finish() (*Config, error) {
	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	def := client.DefaultConfig()

	if c.Server.Path == "" {
		c.Server.Path = DefaultPath
	}

	s := &c.Session
	if s.MarkerClass == "" {
		s.MarkerClass = def.MarkerClass
	}
	if s.ControllerAttribute == "" {
		s.ControllerAttribute = def.ControllerAttribute
	}
	if s.BackoffBase == 0 {
		s.BackoffBase = def.BackoffBase
	}
	if s.BackoffCeiling == 0 {
		s.BackoffCeiling = def.BackoffCeiling
	}
	if s.HandshakeTimeout == 0 {
		s.HandshakeTimeout = def.HandshakeTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = def.WriteTimeout
	}
	if s.MaxMessageSize == 0 {
		s.MaxMessageSize = def.MaxMessageSize
	}
	if s.ScriptTimeout == 0 {
		s.ScriptTimeout = def.ScriptTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
}

// applyEnv overlays the LIVE_* variables that are set.
func (c *Config) applyEnv() error {
	var e env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return errors.New("L104").Wrap(err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Log.Level, e.LogLevel)
	set(&c.Log.Format, e.LogFormat)
	set(&c.Metrics.Addr, e.MetricsAddr)
	set(&c.Snapshot.S3.Region, e.S3Region)
	set(&c.Snapshot.S3.Endpoint, e.S3Endpoint)
	set(&c.Snapshot.S3.AccessKeyID, e.S3AccessKeyID)
	set(&c.Snapshot.S3.SecretAccessKey, e.S3SecretAccessKey)
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || u.Host == "" {
			return c.invalid("server.url must be an absolute URL").Wrap(err)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return c.invalid("server.url scheme must be http, https, ws or wss")
		}
	}

	if err := c.ClientConfig().Validate(); err != nil {
		return c.invalid("invalid session settings").Wrap(err)
	}
	if c.Session.ScriptTimeout < 0 {
		return c.invalid("session.script_timeout must not be negative")
	}

	if c.Snapshot.Location != "" {
		if _, err := snapshot.Parse(c.Snapshot.Location); err != nil {
			return errors.New("L160").
				Wrap(err).
				WithSuggestion("Use a file path or s3://bucket/key")
		}
	}

	if _, ok := levels[c.Log.Level]; !ok {
		return c.invalid("log.level must be debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return c.invalid("log.format must be text or json")
	}
	return nil
}

func (c *Config) invalid(detail string) *errors.Error {
	err := errors.New("L103").WithDetail(detail)
	if c.path != "" {
		err = err.WithLocation(c.path, 0)
	}
	return err
}

// ClientConfig returns the session settings as a client.Config.
func (c *Config) ClientConfig() *client.Config {
	s := c.Session
	return &client.Config{
		MarkerClass:         s.MarkerClass,
		ControllerAttribute: s.ControllerAttribute,
		BackoffBase:         s.BackoffBase,
		BackoffCeiling:      s.BackoffCeiling,
		HandshakeTimeout:    s.HandshakeTimeout,
		WriteTimeout:        s.WriteTimeout,
		MaxMessageSize:      s.MaxMessageSize,
		MaxOutbox:           s.MaxOutbox,
		ScriptTimeout:       s.ScriptTimeout,
	}
}

// S3 returns the snapshot S3 client settings.
func (c *Config) S3() snapshot.S3Config {
	s := c.Snapshot.S3
	return snapshot.S3Config{
		Region:          s.Region,
		Endpoint:        s.Endpoint,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		UsePathStyle:    s.UsePathStyle,
	}
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger builds a logger writing to w per the log settings.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[c.Log.Level]}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
