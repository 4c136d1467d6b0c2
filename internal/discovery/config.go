package discovery

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
)

// Config holds the tunables a discovery session consumes. It is supplied by
// the caller; sessions never read configuration from the environment.
type Config struct {
	// Concurrency and I/O
	MaxConcurrentRequests int
	RequestTimeout        time.Duration
	RateLimitDelay        time.Duration
	MaxRetries            int
	ConcurrentSources     bool

	// Quality and filtering
	MinConfidenceThreshold float64
	EnableQualityFiltering bool
	MinQualityScore        float64

	// Session limits
	MaxCandidatesPerSource int
	MaxTotalCandidates     int
	MaxIterations          int

	// Per-service ceiling overrides applied to the shared rate limiter.
	RateLimits map[string]ratelimit.Limit
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrentRequests:  5,
		RequestTimeout:         30 * time.Second,
		RateLimitDelay:         time.Second,
		MaxRetries:             3,
		ConcurrentSources:      false,
		MinConfidenceThreshold: 0.3,
		EnableQualityFiltering: true,
		MinQualityScore:        0.2,
		MaxCandidatesPerSource: 100,
		MaxTotalCandidates:     500,
		MaxIterations:          3,
	}
}

// Validate reports configuration problems as a fatal ConfigError.
func (c *Config) Validate() error {
	var problems []string

	if c.MaxConcurrentRequests < 1 {
		problems = append(problems, "max_concurrent_requests must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "request_timeout must be positive")
	}
	if c.MinConfidenceThreshold < 0 || c.MinConfidenceThreshold > 1 {
		problems = append(problems, "min_confidence_threshold must be in [0,1]")
	}
	if c.MinQualityScore < 0 || c.MinQualityScore > 1 {
		problems = append(problems, "min_quality_score must be in [0,1]")
	}
	if c.MaxCandidatesPerSource < 1 {
		problems = append(problems, "max_candidates_per_source must be at least 1")
	}
	if c.MaxTotalCandidates < 1 {
		problems = append(problems, "max_total_candidates must be at least 1")
	}
	if c.MaxIterations < 1 {
		problems = append(problems, "max_iterations must be at least 1")
	}
	for service, limit := range c.RateLimits {
		if limit.PerMinute < 1 || limit.PerHour < 1 {
			problems = append(problems, fmt.Sprintf("rate limit for %s must be positive", service))
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// ApplyRateLimits pushes the configured per-service ceilings onto a limiter.
func (c *Config) ApplyRateLimits(limiter *ratelimit.Limiter) {
	for service, limit := range c.RateLimits {
		limiter.SetLimit(service, limit)
	}
}

// ConfigFile is the YAML shape of .scopehound/config.yaml. Durations are
// strings like "30s" or "2m".
type ConfigFile struct {
	MaxConcurrentRequests  int     `yaml:"max_concurrent_requests"`
	RequestTimeout         string  `yaml:"request_timeout"`
	RateLimitDelay         string  `yaml:"rate_limit_delay"`
	MaxRetries             int     `yaml:"max_retries"`
	ConcurrentSources      bool    `yaml:"concurrent_sources"`
	MinConfidenceThreshold float64 `yaml:"min_confidence_threshold"`
	EnableQualityFiltering *bool   `yaml:"enable_quality_filtering"`
	MinQualityScore        float64 `yaml:"min_quality_score"`
	MaxCandidatesPerSource int     `yaml:"max_candidates_per_source"`
	MaxTotalCandidates     int     `yaml:"max_total_candidates"`
	MaxIterations          int     `yaml:"max_iterations"`

	RateLimits map[string]RateLimitConfig `yaml:"rate_limits"`
}

// RateLimitConfig is a per-service ceiling in the config file.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	PerHour   int `yaml:"per_hour"`
}

// LoadConfigFile loads configuration from the given path. A missing file
// yields the default configuration.
func LoadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return file.ToConfig()
}

// ToConfig converts the file representation to a Config, starting from the
// defaults and overriding only what the file sets.
func (cf *ConfigFile) ToConfig() (*Config, error) {
	config := DefaultConfig()

	if cf.MaxConcurrentRequests > 0 {
		config.MaxConcurrentRequests = cf.MaxConcurrentRequests
	}
	if cf.RequestTimeout != "" {
		d, err := time.ParseDuration(cf.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid request_timeout: %w", err)
		}
		config.RequestTimeout = d
	}
	if cf.RateLimitDelay != "" {
		d, err := time.ParseDuration(cf.RateLimitDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid rate_limit_delay: %w", err)
		}
		config.RateLimitDelay = d
	}
	if cf.MaxRetries > 0 {
		config.MaxRetries = cf.MaxRetries
	}
	config.ConcurrentSources = cf.ConcurrentSources
	if cf.MinConfidenceThreshold > 0 {
		config.MinConfidenceThreshold = cf.MinConfidenceThreshold
	}
	if cf.EnableQualityFiltering != nil {
		config.EnableQualityFiltering = *cf.EnableQualityFiltering
	}
	if cf.MinQualityScore > 0 {
		config.MinQualityScore = cf.MinQualityScore
	}
	if cf.MaxCandidatesPerSource > 0 {
		config.MaxCandidatesPerSource = cf.MaxCandidatesPerSource
	}
	if cf.MaxTotalCandidates > 0 {
		config.MaxTotalCandidates = cf.MaxTotalCandidates
	}
	if cf.MaxIterations > 0 {
		config.MaxIterations = cf.MaxIterations
	}
	if len(cf.RateLimits) > 0 {
		config.RateLimits = make(map[string]ratelimit.Limit, len(cf.RateLimits))
		for service, limit := range cf.RateLimits {
			config.RateLimits[service] = ratelimit.Limit{
				PerMinute: limit.PerMinute,
				PerHour:   limit.PerHour,
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
