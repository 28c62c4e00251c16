package backend

import "errors"

// unknownProviderError is returned when a provider name has no adapter.
type unknownProviderError struct{ name string }

func (e unknownProviderError) Error() string { return "unknown provider: " + e.name }

// ErrUnknownProvider constructs the configuration error for name.
func ErrUnknownProvider(name string) error { return unknownProviderError{name: name} }

// IsUnknownProvider reports whether err is a configuration error caused by an
// unrecognized provider name.
func IsUnknownProvider(err error) bool {
	var e unknownProviderError
	return errors.As(err, &e)
}

// ErrNotSupported is returned by optional capabilities an adapter lacks.
var ErrNotSupported = errors.New("operation not supported by provider")
