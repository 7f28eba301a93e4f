package errors

// ErrorBuilder assembles a ClassifiedError. Category defaults come from the
// profile table and may be overridden before Build.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder for category with the category's defaults.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	p := profileOf(category)
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: p.severity,
		retry:    p.retry,
		message:  message,
	}}
}

// WrapError starts a builder whose cause is err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// Retryable marks the error as worth another attempt with backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retry = RetryBackoff
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	if out.context == nil {
		out.context = ErrorContext{}
	}
	return &out
}

func ConfigError(message string) *ErrorBuilder     { return NewError(CategoryConfig, message) }
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }
func NotFoundError(message string) *ErrorBuilder   { return NewError(CategoryNotFound, message) }
func StorageError(message string) *ErrorBuilder    { return NewError(CategoryStorage, message) }
func CodecError(message string) *ErrorBuilder      { return NewError(CategoryCodec, message) }
func NotifyError(message string) *ErrorBuilder     { return NewError(CategoryNotify, message) }
func NetworkError(message string) *ErrorBuilder    { return NewError(CategoryNetwork, message) }
func SessionError(message string) *ErrorBuilder    { return NewError(CategorySession, message) }
func RuntimeError(message string) *ErrorBuilder    { return NewError(CategoryRuntime, message) }
func InternalError(message string) *ErrorBuilder   { return NewError(CategoryInternal, message) }
