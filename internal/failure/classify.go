// Package failure turns upstream errors into the gateway's error taxonomy.
// Every user-facing failure message is shaped here; callers never forward a
// raw upstream error.
package failure

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindCredentialMissing Kind = "credential_missing"
	KindCredentialInvalid Kind = "credential_invalid"
	KindUpstreamFailure   Kind = "upstream_failure"
	KindMalformedResponse Kind = "malformed_response"
)

// Operation names embedded in upstream failure messages.
const (
	OpStreaming = "streaming"
	OpSubtasks  = "subtask generation"
)

const fallbackMessage = "unknown error"

// invalidCredentialMarkers are matched case-insensitively against the raw
// error text.
var invalidCredentialMarkers = []string{
	"api key not valid",
	"permission denied",
	"api key invalid",
}

// ClassifiedError is a failure ready to be shown to an end user. Detail holds
// raw upstream text for diagnostics and must not reach the streaming output.
type ClassifiedError struct {
	Kind    Kind
	Message string
	Model   string
	Detail  string

	cause error
}

func (e *ClassifiedError) Error() string { return e.Message }

func (e *ClassifiedError) Unwrap() error { return e.cause }

// Classify maps err to CredentialInvalid or UpstreamFailure. It always returns
// a non-nil value, including for a nil err.
func Classify(err error, operation, model string) *ClassifiedError {
	raw := ""
	if err != nil {
		raw = err.Error()
	}
	lower := strings.ToLower(raw)
	for _, marker := range invalidCredentialMarkers {
		if strings.Contains(lower, marker) {
			return &ClassifiedError{
				Kind: KindCredentialInvalid,
				Message: fmt.Sprintf("The API key was rejected for model %q. "+
					"Check that the key is valid and has access to this model.", model),
				Model: model,
				cause: err,
			}
		}
	}

	msg := strings.TrimSpace(Redact(raw))
	if msg == "" {
		msg = fallbackMessage
	}
	return &ClassifiedError{
		Kind:    KindUpstreamFailure,
		Message: fmt.Sprintf("Error during %s with model %q: %s", operation, model, msg),
		Model:   model,
		cause:   err,
	}
}

// Unavailable describes a request that could not be attempted because no
// usable client could be built, either for lack of an API key or because the
// client could not be constructed with the key given.
func Unavailable(model string) *ClassifiedError {
	return &ClassifiedError{
		Kind: KindCredentialMissing,
		Message: "The AI service is unavailable: no usable API key was found for this request. " +
			"Configure a key on the server or supply a valid one with the request.",
		Model: model,
	}
}

// Malformed reports a successful call whose payload failed validation. raw is
// kept as Detail.
func Malformed(model, raw string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Kind:    KindMalformedResponse,
		Message: fmt.Sprintf("The AI service returned an invalid subtask list for model %q.", model),
		Model:   model,
		Detail:  raw,
		cause:   cause,
	}
}
