package youtube

import (
	"fmt"

	"youtube-analytics/internal/domain"
)

// quotaReasons are the error reasons the API uses for an exhausted quota.
var quotaReasons = map[string]struct{}{
	"quotaExceeded":      {},
	"dailyLimitExceeded": {},
	"rateLimitExceeded":  {},
}

// ErrorResponse is the error envelope returned by the API on non-2xx responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the body of ErrorResponse.
type ErrorBody struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Errors  []ErrorDetail `json:"errors"`
}

// ErrorDetail is one entry of ErrorBody.Errors.
type ErrorDetail struct {
	Reason  string `json:"reason"`
	Domain  string `json:"domain"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the API.
// It unwraps to domain.ErrQuotaExceeded or domain.ErrUpstream.
type APIError struct {
	Endpoint   string
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("youtube %s returned status %d", e.Endpoint, e.StatusCode)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap classifies the error for errors.Is.
func (e *APIError) Unwrap() error {
	if e.IsQuota() {
		return domain.ErrQuotaExceeded
	}
	return domain.ErrUpstream
}

// IsQuota reports whether the failure was caused by an exhausted quota.
func (e *APIError) IsQuota() bool {
	_, ok := quotaReasons[e.Reason]
	return ok
}

func newAPIError(endpoint string, status int, body *ErrorResponse) *APIError {
	apiErr := &APIError{Endpoint: endpoint, StatusCode: status}
	if body == nil {
		return apiErr
	}
	apiErr.Message = body.Error.Message
	for _, detail := range body.Error.Errors {
		if detail.Reason == "" {
			continue
		}
		if apiErr.Reason == "" {
			apiErr.Reason = detail.Reason
		}
		if _, ok := quotaReasons[detail.Reason]; ok {
			apiErr.Reason = detail.Reason
			break
		}
	}
	return apiErr
}
