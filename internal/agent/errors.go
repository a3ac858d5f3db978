package agent

import (
	"fmt"
)

// ServiceError means the endpoint itself failed: transport error, non-2xx
// status, or a provider-reported error. Retryable with backoff.
type ServiceError struct {
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("agent service error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("agent service error: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ModelBehaviorError means the service responded but the model's output was
// malformed or empty. Retryable; a fresh completion may well behave.
type ModelBehaviorError struct {
	Reason string
	Raw    string
}

func (e *ModelBehaviorError) Error() string {
	return "agent model behavior error: " + e.Reason
}
