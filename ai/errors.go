package ai

import "fmt"

// ConfigurationError reports a fatal endpoint misconfiguration, typically a
// bad credential or model path. It is never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("ai: configuration error: %s", e.Message)
}

// RateLimitedError reports that the endpoint rejected the request with a rate
// limit. The gateway retries these internally; callers only see one when the
// retry budget is exhausted.
type RateLimitedError struct {
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("ai: rate limited after %d attempts", e.Attempts)
}

// RequestFailedError is the generic terminal failure for anything that is
// neither a rate limit nor a configuration problem.
type RequestFailedError struct {
	Message string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("ai: request failed: %s", e.Message)
}
