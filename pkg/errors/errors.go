// Package errors provides error types for cognigraph
package errors

import "fmt"

// APIError represents an error returned by the HTTP API layer
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}
