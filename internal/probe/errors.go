package probe

import "fmt"

// ConfigError means the probe could not be built from its configuration.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RequestError is a transport failure: no response was obtained.
type RequestError struct {
	Endpoint  string
	LatencyMS int64
	Err       error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ValidationError means a response arrived with the wrong status code.
type ValidationError struct {
	Expected  int
	Actual    int
	LatencyMS int64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Expected status code %d, but got %d", e.Expected, e.Actual)
}
