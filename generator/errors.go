package generator

import "fmt"

// GenerationError is returned when the generation endpoint answers with a
// non-success status. Body holds the raw response for diagnostics.
type GenerationError struct {
	StatusCode int
	Body       string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: status %d: %s", e.StatusCode, e.Body)
}
