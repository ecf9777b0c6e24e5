package memory

import (
	"errors"
	"os"
	"strings"
)

// Rand picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// PickTopic returns a uniformly chosen non-empty line of the topics file.
// A missing or empty file yields "".
func PickTopic(path string, rng Rand) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var topics []string
	for _, line := range strings.Split(string(data), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return "", nil
	}
	return topics[rng.IntN(len(topics))], nil
}
