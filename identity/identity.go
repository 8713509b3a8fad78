// Package identity loads the channel token that marks the operator's own comments.
package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissing is returned when the identity file is absent or blank. A run cannot
// start without it.
var ErrMissing = errors.New("channel identity missing")

// Load reads the single token stored in path.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not found", ErrMissing, path)
		}
		return "", fmt.Errorf("read identity: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissing, path)
	}
	return id, nil
}
