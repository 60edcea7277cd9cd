package errors

// Convenience constructors for common error patterns

func InvalidName(path, reason string) *PostBuilderError {
	return New(CategoryName, SeverityFatal, "invalid post name").
		WithContext("path", path).
		WithContext("reason", reason)
}

func DuplicateIdentity(identity string, paths []string) *PostBuilderError {
	return New(CategoryDuplicate, SeverityFatal, "duplicate post identity").
		WithContext("identity", identity).
		WithContext("paths", paths)
}

func FrontMatterMissing(path string) *PostBuilderError {
	return New(CategoryFrontMatter, SeverityFatal, "front matter block missing").
		WithContext("path", path)
}

func FrontMatterInvalid(path string, cause error) *PostBuilderError {
	return Wrap(cause, CategoryFrontMatter, SeverityFatal, "front matter validation failed").
		WithContext("path", path)
}

func RenderFailed(path string, cause error) *PostBuilderError {
	return Wrap(cause, CategoryRender, SeverityFatal, "render failed").
		WithContext("path", path)
}

func OutputError(operation string, cause error) *PostBuilderError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output operation failed").
		WithContext("operation", operation)
}

func ConfigError(message string) *PostBuilderError {
	return New(CategoryConfig, SeverityFatal, message)
}
