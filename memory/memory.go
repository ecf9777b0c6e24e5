// Package memory keeps the recent-post history shown to the model and the
// list of topics to write about.
package memory

import "context"

// Log is an append-only history of posted texts.
type Log interface {
	// Recent returns up to n entries, oldest first.
	Recent(ctx context.Context, n int) ([]string, error)
	Append(ctx context.Context, text string) error
}
