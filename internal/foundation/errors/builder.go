package errors

// ErrorBuilder is a fluent constructor for ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder with SeverityError and RetryNever.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}}
}

// WrapError starts a builder around an existing error.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(cause)
}

func (b *ErrorBuilder) WithSeverity(s ErrorSeverity) *ErrorBuilder {
	b.err.severity = s
	return b
}

func (b *ErrorBuilder) WithRetry(r RetryStrategy) *ErrorBuilder {
	b.err.retry = r
	return b
}

func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.cause = cause
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

// Transient marks the error as recoverable on the next tick.
func (b *ErrorBuilder) Transient() *ErrorBuilder { return b.WithRetry(RetryNextTick) }

// UserAction marks the error as needing operator intervention.
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ValidationError creates an input validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().UserAction()
}

// CaptureError creates a transient capture error.
func CaptureError(message string) *ErrorBuilder {
	return NewError(CategoryCapture, message).Transient()
}

// VideoError creates a transient video compilation error.
func VideoError(message string) *ErrorBuilder {
	return NewError(CategoryVideo, message).Transient()
}

// PruneError creates a transient pruning error.
func PruneError(message string) *ErrorBuilder {
	return NewError(CategoryPrune, message).Transient()
}

// FileSystemError creates a transient filesystem error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message).Transient()
}

// LedgerError creates a ledger error.
func LedgerError(message string) *ErrorBuilder {
	return NewError(CategoryLedger, message).Transient()
}

// ControlError creates a fatal control channel error.
func ControlError(message string) *ErrorBuilder {
	return NewError(CategoryControl, message).Fatal()
}

// DaemonError creates a fatal daemon error.
func DaemonError(message string) *ErrorBuilder {
	return NewError(CategoryDaemon, message).Fatal()
}
