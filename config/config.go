// Package config provides configuration settings for the URL shortener service.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by Load.
const (
	EnvBasicAuth = "BASIC_AUTH"
	EnvPort      = "PORT"
	EnvBaseURL   = "BASE_URL"
	EnvAdminAddr = "ADMIN_ADDR"
	EnvLogLevel  = "LOG_LEVEL"
)

// ErrInvalidCredentials is returned when BASIC_AUTH is missing or not in username:password form.
var ErrInvalidCredentials = errors.New("BASIC_AUTH must be set as username:password")

// Credentials is the single username/password pair accepted for shorten requests.
type Credentials struct {
	Username string `validate:"required"`
	Password string
}

// ParseCredentials splits value on its first colon. The password may itself contain colons.
func ParseCredentials(value string) (Credentials, error) {
	username, password, ok := strings.Cut(value, ":")
	if !ok || username == "" {
		return Credentials{}, ErrInvalidCredentials
	}
	return Credentials{Username: username, Password: password}, nil
}

// Config holds the configuration settings for the application.
type Config struct {
	Host            string        `validate:"omitempty,hostname|ip"`
	ServerPort      int           `validate:"min=1,max=65535"`
	BaseURL         string        `validate:"omitempty,url"`
	AdminAddr       string        `validate:"omitempty,hostname_port"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	MaxBodyBytes    int64         `validate:"gt=0"`
	StoreSizeHint   int           `validate:"gte=0"`
	Credentials     Credentials
}

// DefaultConfig returns the default configuration settings.
// Credentials are left empty; they have no sensible default.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		ServerPort:      8887,
		LogLevel:        "info",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxBodyBytes:    1 << 20,
		StoreSizeHint:   1000,
	}
}

// Address returns the host:port the public listener binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.ServerPort))
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load builds a Config from defaults, then command-line flags, then environment
// variables looked up with getenv. BASIC_AUTH is mandatory.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("scratch-shortener", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host to bind the server to")
	fs.IntVar(&cfg.ServerPort, "port", cfg.ServerPort, "Port to listen on")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Prefix for returned short URLs, e.g. https://sho.rt")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "Address of the admin endpoint; disabled when empty")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "Per-connection read deadline")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "Per-connection write deadline")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Grace period for in-flight connections on shutdown")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "Largest accepted request body")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := getenv(EnvPort); envPort != "" {
		port, err := strconv.Atoi(envPort)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvPort, err)
		}
		cfg.ServerPort = port
	}
	if envBase := getenv(EnvBaseURL); envBase != "" {
		cfg.BaseURL = envBase
	}
	if envAdmin := getenv(EnvAdminAddr); envAdmin != "" {
		cfg.AdminAddr = envAdmin
	}
	if envLevel := getenv(EnvLogLevel); envLevel != "" {
		cfg.LogLevel = envLevel
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	creds, err := ParseCredentials(getenv(EnvBasicAuth))
	if err != nil {
		return nil, err
	}
	cfg.Credentials = creds

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
