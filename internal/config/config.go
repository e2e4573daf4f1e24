// Package config loads the bridge configuration from defaults, an optional
// readerbridge.yaml and READERBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. READERBRIDGE_SERVER_ADDR.
const EnvPrefix = "READERBRIDGE"

// Config holds all bridge configuration.
type Config struct {
	Server    ServerConfig
	Network   NetworkConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ServerConfig is the loopback server configuration.
type ServerConfig struct {
	Addr string
	// Token gates /invoke. Generated per process when not configured.
	Token          string
	TokenGenerated bool
	AllowedOrigins []string
}

// NetworkConfig shapes the shared outbound client.
type NetworkConfig struct {
	// ProxyURL routes every outbound request through one proxy when set.
	ProxyURL *url.URL
	// ProxyFromEnvironment honours HTTP_PROXY, HTTPS_PROXY and NO_PROXY
	// when ProxyURL is unset.
	ProxyFromEnvironment bool
	// Trace records DNS, connect and TLS timing per request.
	Trace bool
}

// LogConfig is the logger configuration.
type LogConfig struct {
	Level string
	// File enables the rotating file log when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    bool
}

// TelemetryConfig is the tracing and metrics configuration.
type TelemetryConfig struct {
	// OTLPEndpoint enables trace export over gRPC when non-empty.
	OTLPEndpoint string
	OTLPInsecure bool
	Metrics      bool
	SampleRatio  float64
}

// Load reads the configuration. An explicit path must exist; otherwise
// readerbridge.yaml is looked up in the working directory and
// $HOME/.config/readerbridge, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("readerbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/readerbridge")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Server.Addr = v.GetString("server.addr")
	cfg.Server.Token = v.GetString("server.token")
	cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")

	cfg.Network.ProxyFromEnvironment = v.GetBool("network.proxy_from_env")
	cfg.Network.Trace = v.GetBool("network.trace")

	var errs []error
	if raw := v.GetString("network.proxy_url"); raw != "" {
		proxyURL, err := parseProxyURL(raw)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.Network.ProxyURL = proxyURL
	}

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")
	cfg.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	cfg.Log.MaxBackups = v.GetInt("log.max_backups")
	cfg.Log.MaxAgeDays = v.GetInt("log.max_age_days")
	cfg.Log.Console = v.GetBool("log.console")

	cfg.Telemetry.OTLPEndpoint = v.GetString("telemetry.otlp_endpoint")
	cfg.Telemetry.OTLPInsecure = v.GetBool("telemetry.otlp_insecure")
	cfg.Telemetry.Metrics = v.GetBool("telemetry.metrics")
	cfg.Telemetry.SampleRatio = v.GetFloat64("telemetry.sample_ratio")

	if cfg.Server.Token == "" {
		cfg.Server.Token = uuid.NewString()
		cfg.Server.TokenGenerated = true
	}

	if err := errors.Join(append(errs, validate(cfg))...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.addr", "127.0.0.1:47615")
	v.SetDefault("server.token", "")
	v.SetDefault("server.allowed_origins", []string{})

	// Network
	v.SetDefault("network.proxy_url", "")
	v.SetDefault("network.proxy_from_env", true)
	v.SetDefault("network.trace", true)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.console", true)

	// Telemetry
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.metrics", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// defaultLogFile is <user config dir>/readerbridge/logs/readerbridge.log,
// or "" (no file log) when the directory is unknown.
func defaultLogFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "readerbridge", "logs", "readerbridge.log")
}

func parseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("network.proxy_url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("network.proxy_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("network.proxy_url: host is required")
	}
	return u, nil
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits must not be negative"))
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("telemetry.sample_ratio must be within [0, 1]"))
	}

	return errors.Join(errs...)
}
