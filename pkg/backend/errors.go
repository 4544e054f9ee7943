package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is returned when the backend answers with a non-2xx status
type APIError struct {
	StatusCode int
	Detail     string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if detail := e.ErrorDetail(); detail != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, detail)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// ErrorDetail returns the most specific human-readable reason available
func (e *APIError) ErrorDetail() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Message != "":
		return e.Message
	default:
		return strings.TrimSpace(e.Body)
	}
}

// newAPIError drains resp.Body and extracts the backend's error detail
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		apiErr.Message = fmt.Sprintf("failed to read error response: %v", err)
		return apiErr
	}
	apiErr.Body = string(body)

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return apiErr
	}

	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = payload.Error
	}

	// detail is usually a string, but validation failures send a list
	var detail string
	if json.Unmarshal(payload.Detail, &detail) == nil {
		apiErr.Detail = detail
	} else if len(payload.Detail) > 0 && string(payload.Detail) != "null" {
		apiErr.Detail = string(payload.Detail)
	}
	return apiErr
}
