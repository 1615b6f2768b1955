package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *MonoserveError {
	return New(CategoryConfig, SeverityFatal, "manifest file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *MonoserveError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *MonoserveError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func BuildFailed(workspace string, cause error) *MonoserveError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "workspace build failed").
		WithContext("workspace", workspace)
}

func PublishFailed(workspace string, cause error) *MonoserveError {
	return Wrap(cause, CategoryPublish, SeverityFatal, "artifact publish failed").
		WithContext("workspace", workspace)
}

// Serving errors

func StaticRootUnreadable(path string, cause error) *MonoserveError {
	return Wrap(cause, CategoryStatic, SeverityFatal, "static root not readable").
		WithContext("path", path)
}

func ProxyUnreachable(target string, cause error) *MonoserveError {
	return WrapRetryable(cause, CategoryProxy, SeverityError, "dev server unreachable").
		WithContext("target", target)
}

func ProxyTimeout(target string, cause error) *MonoserveError {
	return WrapRetryable(cause, CategoryProxy, SeverityError, "dev server timed out").
		WithContext("target", target)
}

// Internal errors

func InternalError(message string, cause error) *MonoserveError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
