package ring

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/c360/ringkit/errors"
)

// Config is the declarative form of a buffer's construction parameters,
// loadable from YAML.
type Config struct {
	// Capacity is the fixed element capacity, at least 2.
	Capacity int `yaml:"capacity"`

	// AccessMode selects the concurrency discipline:
	// "sequential", "exclusive" or "parallel". Defaults to "exclusive".
	AccessMode string `yaml:"access_mode"`

	// AllowOverwrite makes writes evict the oldest elements instead of
	// failing. Only valid with sequential access.
	AllowOverwrite bool `yaml:"allow_overwrite"`

	// MaxConcurrentOps caps in-flight operations under parallel access.
	// Zero means GOMAXPROCS.
	MaxConcurrentOps int `yaml:"max_concurrent_ops"`
}

// ParseConfig unmarshals and validates a YAML buffer configuration.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.WrapInvalid(err, "Config", "ParseConfig", "yaml unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Capacity < 2 {
		return errors.Invalidf("Config", "Validate", "capacity must be >= 2, got %d", c.Capacity)
	}
	if _, err := c.mode(); err != nil {
		return err
	}
	if c.MaxConcurrentOps < 0 {
		return errors.Invalidf("Config", "Validate",
			"max_concurrent_ops must be >= 0, got %d", c.MaxConcurrentOps)
	}
	mode, _ := c.mode()
	if c.AllowOverwrite && mode != AccessSequential {
		return errors.Invalidf("Config", "Validate",
			"allow_overwrite requires sequential access, got %q", c.AccessMode)
	}
	return nil
}

func (c Config) mode() (AccessMode, error) {
	switch c.AccessMode {
	case "sequential":
		return AccessSequential, nil
	case "exclusive", "":
		return AccessExclusive, nil
	case "parallel":
		return AccessBoundedParallel, nil
	default:
		return 0, errors.Invalidf("Config", "Validate", "unknown access_mode %q", c.AccessMode)
	}
}

// String returns a compact human-readable form, useful in logs.
func (c Config) String() string {
	return fmt.Sprintf("capacity=%d mode=%s overwrite=%t max_ops=%d",
		c.Capacity, c.AccessMode, c.AllowOverwrite, c.MaxConcurrentOps)
}

// NewFromConfig constructs a buffer from a validated configuration.
// Additional options (metrics, logger, initial data) may be layered on top.
func NewFromConfig[T any](cfg Config, extra ...Option[T]) (*Buffer[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := cfg.mode()
	if err != nil {
		return nil, err
	}

	options := []Option[T]{
		WithAccessMode[T](mode),
		WithMaxConcurrentOps[T](cfg.MaxConcurrentOps),
	}
	if cfg.AllowOverwrite {
		options = append(options, WithOverwrite[T]())
	}
	options = append(options, extra...)

	return New[T](cfg.Capacity, options...)
}
