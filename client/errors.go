package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response of the API.
type APIError struct {
	StatusCode int               `json:"-"`
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Code       string            `json:"code,omitempty"`
	Fields     map[string]string `json:"errors,omitempty"`
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(statusCode)
		}
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsForbidden reports whether the credential may not reach the resource.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden || e.Code == "user_required"
}
