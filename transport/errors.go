package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xiaot623/gogo/sdk/domain"
)

var (
	// ErrTransport is matched by every failure of a remote call.
	ErrTransport = errors.New("transport error")
	// ErrNotFound is matched when the service reports a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrStreamInterrupted is matched when a chat stream ends without its terminal marker.
	ErrStreamInterrupted = errors.New("stream interrupted")
)

// APIError is a non-2xx answer of the service.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API error [%d]: %s (type: %s)", e.StatusCode, e.Message, e.Type)
	}
	return fmt.Sprintf("API error [%d]: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match ErrTransport for every API error and ErrNotFound for 404s.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// parseAPIError decodes an error body. Both {"error":{"message":...}} and
// {"error":"..."} are understood; anything else is kept as text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var structured domain.ErrorResponse
	if err := json.Unmarshal(body, &structured); err == nil && structured.Error != nil {
		apiErr.Type = structured.Error.Type
		apiErr.Message = structured.Error.Message
		return apiErr
	}

	var plain struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.Error != "" {
		apiErr.Message = plain.Error
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}
