// Package errors turns non-2xx responses from the AutoFillPro backend into
// typed errors that keep the status and raw body.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MinErrorStatusCode is the lowest status treated as a failure.
const MinErrorStatusCode = 300

// maxBodyBytes caps how much of an error body is retained.
const maxBodyBytes = 64 << 10

// HTTPError is a failed backend response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// ParseHTTPError reads resp.Body and returns an *HTTPError for any status
// outside 2xx, or nil otherwise. The backend reports failures as
// {"detail": "..."} or, for request validation, {"detail": [{"msg": ...}]};
// {"error"} and {"message"} bodies are recognised as well.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    fmt.Sprintf("failed to read error response body: %v", err),
		}
	}

	body := string(bodyBytes)
	msg := extractMessage(bodyBytes)
	if msg == "" {
		msg = strings.TrimSpace(body)
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
		Message:    msg,
	}
}

func extractMessage(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &envelope) != nil {
		return ""
	}

	if len(envelope.Detail) > 0 {
		var detail string
		if json.Unmarshal(envelope.Detail, &detail) == nil {
			return detail
		}

		var items []struct {
			Msg string `json:"msg"`
			Loc []any  `json:"loc"`
		}
		if json.Unmarshal(envelope.Detail, &items) == nil && len(items) > 0 {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				parts = append(parts, item.Msg)
			}
			return strings.Join(parts, "; ")
		}
	}

	if envelope.Error != "" {
		return envelope.Error
	}
	return envelope.Message
}

// AsHTTPError unwraps err to an *HTTPError.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// StatusCode returns the backend status carried by err, if any.
func StatusCode(err error) (int, bool) {
	if httpErr, ok := AsHTTPError(err); ok {
		return httpErr.StatusCode, true
	}
	return 0, false
}

// IsUnauthorized reports whether the backend rejected the bearer token.
func IsUnauthorized(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusUnauthorized
}
