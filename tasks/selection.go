package tasks

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is how the operator chose the subset of the queue to process.
type Mode string

const (
	ModeAll            Mode = "all"
	ModeFirstUnwatched Mode = "some"
)

// Selection is derived at run start and never stored.
type Selection struct {
	Mode  Mode
	Count int
}

func All() Selection { return Selection{Mode: ModeAll} }

func FirstUnwatched(n int) Selection { return Selection{Mode: ModeFirstUnwatched, Count: n} }

func (s Selection) String() string {
	if s.Mode == ModeFirstUnwatched {
		return fmt.Sprintf("first %d unwatched", s.Count)
	}
	return "all"
}

func (s Selection) Validate() error {
	switch s.Mode {
	case ModeAll:
		return nil
	case ModeFirstUnwatched:
		if s.Count < 0 {
			return fmt.Errorf("count must be non-negative, got %d", s.Count)
		}
		return nil
	default:
		return fmt.Errorf("unknown selection mode %q", s.Mode)
	}
}

// Select returns the queue indices to visit, in queue order. The queue is not touched.
func Select(queue []VideoTask, s Selection) []int {
	var out []int
	switch s.Mode {
	case ModeFirstUnwatched:
		for i, t := range queue {
			if len(out) >= s.Count {
				break
			}
			if !t.IsWatched {
				out = append(out, i)
			}
		}
	default:
		out = make([]int, len(queue))
		for i := range queue {
			out[i] = i
		}
	}
	return out
}

// ParseCount accepts only a plain non-negative decimal number, as typed at the prompt.
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("count %q is not a number", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", s, err)
	}
	return n, nil
}
