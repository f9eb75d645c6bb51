// Package config loads FieldMaestro settings from defaults, an optional
// config file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sguter90/fieldmaestro/pkg/notify"
	"github.com/sguter90/fieldmaestro/pkg/relay"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the complete application configuration
type Config struct {
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	FieldMapPath string `mapstructure:"field_map_path"`

	Database database.Config  `mapstructure:"database"`
	Server   ServerConfig     `mapstructure:"server"`
	MQTT     relay.MQTTConfig `mapstructure:"mqtt"`
	SMTP     notify.Config    `mapstructure:"smtp"`
	API      APIConfig        `mapstructure:"api"`
	Relay    RelayConfig      `mapstructure:"relay"`
	Sim      SimulatorConfig  `mapstructure:"simulator"`
	Spool    SpoolConfig      `mapstructure:"spool"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RelayConfig struct {
	ParcelMarker string `mapstructure:"parcel_marker"`
	Format       string `mapstructure:"format"`
}

type SimulatorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type SpoolConfig struct {
	Path string `mapstructure:"path"`
}

// Environment variable names that differ from the upper-cased key
var envAliases = map[string]string{
	"database.driver":        "DB_DRIVER",
	"database.path":          "DB_PATH",
	"database.host":          "DB_HOST",
	"database.port":          "DB_PORT",
	"database.user":          "DB_USER",
	"database.password":      "DB_PASSWORD",
	"database.name":          "DB_NAME",
	"database.sslmode":       "DB_SSLMODE",
	"server.port":            "SERVER_PORT",
	"server.allowed_origins": "SERVER_ALLOWED_ORIGINS",
	"jwt_secret":             "JWT_SECRET",
	"api.base_url":           "API_BASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("field_map_path", "")

	v.SetDefault("database.driver", string(database.DialectSQLite))
	v.SetDefault("database.path", "fieldmaestro.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "fieldmaestro")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "fieldmaestro")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("server.port", "8059")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("mqtt.broker", relay.DefaultBroker)
	v.SetDefault("mqtt.topic", relay.DefaultTopic)
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.timeout", 10*time.Second)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.to", []string{})

	v.SetDefault("api.base_url", "http://localhost:8059")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("relay.parcel_marker", relay.DefaultParcelMarker)
	v.SetDefault("relay.format", "maiota")

	v.SetDefault("simulator.interval", 5*time.Second)

	v.SetDefault("spool.path", "telemetry_spool.ndjson")
}

// Load reads the configuration. An empty path searches for fieldmaestro.yaml
// in the working directory and /etc/fieldmaestro; a missing file is not an
// error unless path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fieldmaestro")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fieldmaestro")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.SMTP.To = splitList(cfg.SMTP.To)

	return &cfg, nil
}

// splitList flattens comma separated entries and drops blanks
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ValidateServe checks the settings the HTTP server cannot start without
func (c *Config) ValidateServe() error {
	if c.JWTSecret == "" || c.JWTSecret == "change_me_in_production" {
		return errors.New("JWT_SECRET environment variable is not set or has an invalid value")
	}
	return nil
}

// NewLogger builds the process logger from the log settings
func (c *Config) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	logger.SetLevel(level)

	switch c.LogFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log_format %q (valid: text, json)", c.LogFormat)
	}

	return logger, nil
}
