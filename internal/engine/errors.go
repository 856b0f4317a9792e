package engine

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v81/github"
)

// TransientAPIError is a platform call that failed in a way a retry of the
// whole run could fix: network errors, timeouts, 5xx responses, rate limits.
// StatusCode is 0 when no HTTP response was received.
type TransientAPIError struct {
	Branch     string
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: transient API error (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientAPIError) Unwrap() error { return e.Err }

// ApplicationError is a platform call the API understood and rejected. The
// request will keep failing until credentials or the policy change, so the
// branch is reported as failed rather than retried.
type ApplicationError struct {
	Branch     string
	Op         string
	StatusCode int
	Detail     string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: rejected (HTTP %d): %s", e.Op, e.StatusCode, e.Detail)
}

// classifyAPIError maps a failed go-github call to the run's error taxonomy.
func classifyAPIError(branch, op string, resp *github.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return &ApplicationError{Branch: branch, Op: op, StatusCode: status, Detail: apiMessage(err)}
	}
	return &TransientAPIError{Branch: branch, Op: op, StatusCode: status, Err: err}
}

// apiMessage prefers the API's own error message over go-github's verbose
// "METHOD url: status" rendering.
func apiMessage(err error) string {
	var ger *github.ErrorResponse
	if errors.As(err, &ger) && ger.Message != "" {
		return ger.Message
	}
	if err == nil {
		return "request rejected"
	}
	return err.Error()
}
