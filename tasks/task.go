// Package tasks holds the queue entry model shared by the store, the session driver and
// the runner.
package tasks

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout renders HH:MM DD.MM.YYYY, used for both the comment markers and the
// persisted Start/End fields.
const TimestampLayout = "15:04 02.01.2006"

// UnknownTitle is stored when the page shows no title element.
const UnknownTitle = "Unknown Title"

var ErrInvalidDuration = errors.New("invalid duration")

// VideoTask is one queue entry. Field names on the wire match the queue files written by
// earlier runs.
type VideoTask struct {
	Link      string `json:"Link"`
	Duration  string `json:"Duration"`
	Title     string `json:"Title,omitempty"`
	Start     string `json:"Start,omitempty"`
	End       string `json:"End,omitempty"`
	IsWatched bool   `json:"isWatched"`
}

// WatchTime parses the task's H:M:S duration.
func (t VideoTask) WatchTime() (time.Duration, error) {
	return ParseDuration(t.Duration)
}

// ParseDuration converts "H:M:S" into a duration. Each part must be a non-negative
// integer; minutes and seconds above 59 are summed as given. Totals that do not fit in a
// time.Duration are rejected.
func ParseDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w %q: want H:M:S", ErrInvalidDuration, s)
	}
	units := [3]time.Duration{time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w %q: bad component %q", ErrInvalidDuration, s, p)
		}
		if n > int64(math.MaxInt64-total)/int64(units[i]) {
			return 0, fmt.Errorf("%w %q: out of range", ErrInvalidDuration, s)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

// FormatTimestamp renders t with TimestampLayout in t's own location.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Clone returns a copy of the queue so callers can mutate entries freely.
func Clone(queue []VideoTask) []VideoTask {
	if queue == nil {
		return nil
	}
	out := make([]VideoTask, len(queue))
	copy(out, queue)
	return out
}
