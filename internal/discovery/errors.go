package discovery

import (
	"fmt"
	"strings"
	"time"
)

// SourceError wraps a failure of one source. It is absorbed by the pipeline
// as a session warning; the session continues with the remaining sources.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ValidationError marks a candidate that failed format validation. The
// candidate is dropped without a warning.
type ValidationError struct {
	Identifier string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Identifier, e.Reason)
}

// RateLimitError signals an exhausted service quota. The caller must back
// off for RetryAfter before retrying; candidates are never silently dropped
// because of it.
type RateLimitError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Service, e.RetryAfter)
}

// ConfigError reports invalid session configuration. It is the only fatal
// error class: the session aborts before collection starts.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
