package oauth

import "fmt"

// RefreshError is returned when a token exchange fails. StatusCode is 0 when
// the endpoint was never reached or its answer could not be used.
type RefreshError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RefreshError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token exchange failed: %s", e.Body)
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *RefreshError) Unwrap() error { return e.Err }
