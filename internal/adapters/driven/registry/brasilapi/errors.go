package brasilapi

import (
	"errors"
	"fmt"
)

// APIError represents an unexpected registry API response.
type APIError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brasilapi: API error %d (URL: %s)", e.StatusCode, e.URL)
}

// IsAPIError checks if the error chain holds an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
