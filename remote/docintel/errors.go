package docintel

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jpalmerr/longrun/internal/transport"
)

// ServiceError is a non-success HTTP answer from the service.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("docintel: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message == "" {
		return fmt.Sprintf("docintel: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("docintel: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// ErrorDetail is the error object of the service.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`

	Details    []ErrorDetail `json:"details,omitempty"`
	InnerError *InnerError   `json:"innererror,omitempty"`
}

type InnerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func convertError(resp transport.Response) error {
	e := &ServiceError{StatusCode: resp.StatusCode}

	var body struct {
		Error *ErrorDetail `json:"error"`
	}

	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != nil {
		e.Code = body.Error.Code
		e.Message = body.Error.Message

		if inner := body.Error.InnerError; inner != nil && inner.Message != "" {
			e.Message += " (" + inner.Message + ")"
		}

		return e
	}

	e.Message = string(resp.Body)
	return e
}
