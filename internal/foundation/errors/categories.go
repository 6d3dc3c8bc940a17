package errors

import "maps"

// ErrorCategory is the broad classification of an error.
type ErrorCategory string

const (
	// CategoryConfig and CategoryValidation are user-facing startup errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Collaborator categories.
	CategoryCapture    ErrorCategory = "capture"
	CategoryVideo      ErrorCategory = "video"
	CategoryPrune      ErrorCategory = "prune"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryLedger     ErrorCategory = "ledger"

	// CategoryControl covers the runtime control channel.
	CategoryControl ErrorCategory = "control"
	CategoryNetwork ErrorCategory = "network"

	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Ends the owning duty
	SeverityError   ErrorSeverity = "error"   // Fails the current trigger only
	SeverityWarning ErrorSeverity = "warning" // Degraded, trigger still counted
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy tells the owning duty what to do with the next tick.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryNextTick   RetryStrategy = "next_tick" // Try again on the next scheduled wake-up
	RetryUserAction RetryStrategy = "user"
)

// ErrorContext holds structured context for an error.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if v, ok := c.Get(key); ok {
		s, isStr := v.(string)
		return s, isStr
	}
	return "", false
}

// Merge combines two contexts, other wins on conflicts.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
