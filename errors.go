package gopq

import "fmt"

// ConfigError reports a problem with a schema declaration or writer/reader
// configuration: an unknown type name, an out-of-range DECIMAL precision,
// or illegal nesting. A record value whose Go type a leaf cannot accept is
// reported as InvalidInput, not ConfigError.
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gopq: config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("gopq: config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// InvalidInput reports a record that violates its schema: a wrong-typed
// field, a missing required field, or an unsupported value shape.
type InvalidInput struct {
	Path    string
	Message string
}

func (e *InvalidInput) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("gopq: invalid input at %q: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("gopq: invalid input: %s", e.Message)
}

func newInvalidInput(path, format string, args ...any) *InvalidInput {
	return &InvalidInput{Path: path, Message: fmt.Sprintf(format, args...)}
}

// FormatError reports a corrupt or malformed Parquet file: a missing magic
// marker, a truncated footer, a page header that failed to decode, or an
// internal consistency check (page value counts, offsets) that failed.
type FormatError struct {
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gopq: format error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("gopq: format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error { return e.Cause }

func newFormatError(format string, args ...any) *FormatError {
	return &FormatError{Message: fmt.Sprintf(format, args...)}
}

func wrapFormatError(cause error, format string, args ...any) *FormatError {
	return &FormatError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IoError wraps a failure surfaced by a ByteSink or ByteSource.
type IoError struct {
	Cause error
}

func (e *IoError) Error() string { return fmt.Sprintf("gopq: io error: %v", e.Cause) }

func (e *IoError) Unwrap() error { return e.Cause }

func wrapIoError(cause error) error {
	if cause == nil {
		return nil
	}
	return &IoError{Cause: cause}
}

// CodecError wraps a failure surfaced by a compression Codec.
type CodecError struct {
	Codec string
	Cause error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("gopq: codec error (%s): %v", e.Codec, e.Cause)
}

func (e *CodecError) Unwrap() error { return e.Cause }

func wrapCodecError(codec string, cause error) error {
	if cause == nil {
		return nil
	}
	return &CodecError{Codec: codec, Cause: cause}
}
