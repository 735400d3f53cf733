package nemo

import "fmt"

// InferenceError is a failed call to the inference server.
type InferenceError struct {
	// Status is the HTTP status of the reply, 0 when no reply arrived.
	Status int

	// Message comes from the server's "error" field or its raw body.
	Message string

	// Cause is the transport error, if any.
	Cause error

	// Retryable is set for transport failures, 5xx and 429.
	Retryable bool
}

func (e *InferenceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: inference error [%d]: %s", remoteProvider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: inference error: %s", remoteProvider, e.Message)
}

func (e *InferenceError) Unwrap() error { return e.Cause }
