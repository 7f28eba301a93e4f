package errors

// ErrorCategory groups failures by the subsystem that produced them.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryStorage    ErrorCategory = "storage"
	CategoryCodec      ErrorCategory = "codec"
	CategoryNotify     ErrorCategory = "notify"
	CategoryNetwork    ErrorCategory = "network"
	CategorySession    ErrorCategory = "session"
	CategoryRuntime    ErrorCategory = "runtime"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity says how far a failure propagates.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// RetryStrategy tells callers such as retry.Policy whether another attempt may help.
type RetryStrategy string

const (
	RetryNever   RetryStrategy = "never"
	RetryBackoff RetryStrategy = "backoff"
)

// profile holds the defaults a category starts with.
type profile struct {
	severity ErrorSeverity
	retry    RetryStrategy
	exitCode int
}

// Exit codes follow the CLI contract: 2 usage, 3 missing record, 7 config,
// 8 transport, 9 storage, 10 internal, 12 session.
var profiles = map[ErrorCategory]profile{
	CategoryConfig:     {SeverityFatal, RetryNever, 7},
	CategoryValidation: {SeverityError, RetryNever, 2},
	CategoryNotFound:   {SeverityError, RetryNever, 3},
	CategoryStorage:    {SeverityError, RetryNever, 9},
	CategoryCodec:      {SeverityError, RetryNever, 9},
	CategoryNotify:     {SeverityWarning, RetryNever, 8},
	CategoryNetwork:    {SeverityError, RetryBackoff, 8},
	CategorySession:    {SeverityError, RetryNever, 12},
	CategoryRuntime:    {SeverityFatal, RetryNever, 12},
	CategoryInternal:   {SeverityFatal, RetryNever, 10},
}

func profileOf(c ErrorCategory) profile {
	if p, ok := profiles[c]; ok {
		return p
	}
	return profile{SeverityError, RetryNever, 1}
}

// ErrorContext carries structured fields that end up as log attributes.
type ErrorContext map[string]any

// GetString returns the string stored under key.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// with returns a copy of c with key set.
func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}
