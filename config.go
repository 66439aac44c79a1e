package riak

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTimeout applies to connection attempts, the delay between
	// reconnection attempts, and the server-side timeout of operations.
	DefaultTimeout = 60 * time.Second

	DefaultContentType = "application/json"
)

// Config holds configuration for the client.
type Config struct {
	// Endpoints are the store nodes, tried in order by the reconnect
	// supervisor. When empty, the client connects once to localhost:8087
	// and does not reconnect.
	Endpoints []Endpoint

	// Timeout bounds connection attempts, spaces reconnection attempts,
	// and is sent as the server-side timeout of each operation.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// DefaultContentType is used to store values when a Put sets none,
	// and to read values stored without one. Zero means application/json.
	DefaultContentType string

	// Converters are registered in order. When empty, a JSONConverter is
	// registered for application/json.
	Converters []ConverterRegistration

	// MaxQueuedRequests bounds the requests queued while disconnected.
	// Requests over the limit fail with ErrConnectionUnavailable.
	// Zero means unbounded.
	MaxQueuedRequests int

	// Dialer is the net.Dialer used to create connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// NewCircuitBreaker creates a circuit breaker guarding the connection
	// attempts to an endpoint. Called once per endpoint.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(endpoint string) CircuitBreaker

	// Logger receives connection events and dropped responses.
	// If nil, logging is disabled.
	Logger *zap.Logger

	// OnError is called with errors that no request is waiting for, such as
	// an error response arriving with an empty wait queue.
	OnError func(error)

	// for testing purposes only
	dial  func(ctx context.Context, network, addr string) (net.Conn, error)
	sleep func(ctx context.Context, d time.Duration) error
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DefaultContentType == "" {
		c.DefaultContentType = DefaultContentType
	}
	if len(c.Converters) == 0 {
		c.Converters = []ConverterRegistration{{Type: "application", Subtype: "json", Converter: JSONConverter{}}}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.dial == nil {
		dialer := c.Dialer
		if dialer == nil {
			dialer = &net.Dialer{}
		}
		c.dial = dialer.DialContext
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	for _, e := range c.Endpoints {
		if e.Host == "" {
			return errors.New("riak: endpoint host is required")
		}
		if e.Port <= 0 || e.Port > 65535 {
			return fmt.Errorf("riak: endpoint %s: port must be between 1 and 65535", e)
		}
	}
	if c.Timeout < 0 {
		return errors.New("riak: timeout must not be negative")
	}
	if c.MaxQueuedRequests < 0 {
		return errors.New("riak: max_queued_requests must not be negative")
	}
	for _, r := range c.Converters {
		if r.Type == "" || r.Subtype == "" || r.Converter == nil {
			return errors.New("riak: converter registration needs a type, a subtype and a converter")
		}
	}
	return nil
}

// FileConfig is the YAML representation of a Config.
//
//	endpoints:
//	  - riak-1.internal:8087
//	  - riak-2.internal
//	timeout: 10s
//	default_content_type: application/json
//	max_queued_requests: 10000
//	logging:
//	  level: info
type FileConfig struct {
	Endpoints          []string      `yaml:"endpoints"`
	Timeout            time.Duration `yaml:"timeout"`
	DefaultContentType string        `yaml:"default_content_type"`
	MaxQueuedRequests  int           `yaml:"max_queued_requests"`
	Logging            LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the logger built by LoadConfig.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("riak: read config: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("riak: parse config: %w", err)
	}
	return fc.Config()
}

// Config converts the file representation, building the logger.
func (fc FileConfig) Config() (Config, error) {
	endpoints, err := ParseEndpoints(fc.Endpoints...)
	if err != nil {
		return Config{}, err
	}

	logger, err := NewLogger(fc.Logging)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Endpoints:          endpoints,
		Timeout:            fc.Timeout,
		DefaultContentType: fc.DefaultContentType,
		MaxQueuedRequests:  fc.MaxQueuedRequests,
		Logger:             logger,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger builds a zap logger. An empty level disables logging.
func NewLogger(lc LoggingConfig) (*zap.Logger, error) {
	if lc.Level == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("riak: logging.level: %w", err)
	}

	var config zap.Config
	if lc.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	return config.Build()
}
