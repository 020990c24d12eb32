package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// WithPartial records the originating partial. An empty id is omitted.
func (b *ErrorBuilder) WithPartial(path, id string) *ErrorBuilder {
	b.context = b.context.Set(ContextPartialPath, path)
	if id != "" {
		b.context = b.context.Set(ContextPartialID, id)
	}
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().UserAction()
}

// BuildError creates a build processing error.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).Fatal()
}

// FileSystemError creates a filesystem error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message).WithRetry(RetryBackoff)
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}

// CompilationFailure reports that the secondary compilation itself failed.
func CompilationFailure(message string) *ErrorBuilder {
	return NewError(CategoryCompilation, message).Fatal()
}

// ExecutionFailure reports that evaluating a compiled partial module failed.
func ExecutionFailure(message string) *ErrorBuilder {
	return NewError(CategoryExecution, message).Fatal()
}

// InvalidPartialOutput reports a module result that is neither HTML nor an HTML factory.
func InvalidPartialOutput(message string) *ErrorBuilder {
	return NewError(CategoryInvalidOutput, message).Fatal()
}

// TemplateRenderFailure reports a template that failed to compile or render.
func TemplateRenderFailure(message string) *ErrorBuilder {
	return NewError(CategoryRender, message).Fatal()
}

// MissingTargetDocument reports an injection target absent from the asset store.
// It is the one recoverable partial failure.
func MissingTargetDocument(message string) *ErrorBuilder {
	return NewError(CategoryMissingTarget, message).Warning()
}
