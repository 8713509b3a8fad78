package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func queueWithWatched(watched ...bool) []VideoTask {
	q := make([]VideoTask, len(watched))
	for i, w := range watched {
		q[i] = VideoTask{Link: string(rune('a' + i)), Duration: "0:0:1", IsWatched: w}
	}
	return q
}

func TestSelectFirstUnwatchedSkipsWatched(t *testing.T) {
	// tasks 1 and 3 (1-based) are watched
	q := queueWithWatched(true, false, true, false, false)
	before := Clone(q)

	got := Select(q, FirstUnwatched(2))

	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, before, q, "selection must not touch the queue")
}

func TestSelectFirstUnwatchedEdges(t *testing.T) {
	q := queueWithWatched(false, false)
	assert.Empty(t, Select(q, FirstUnwatched(0)))
	assert.Equal(t, []int{0, 1}, Select(q, FirstUnwatched(10)))
	assert.Empty(t, Select(queueWithWatched(true, true), FirstUnwatched(1)))
}

func TestSelectAll(t *testing.T) {
	q := queueWithWatched(true, false, true)
	assert.Equal(t, []int{0, 1, 2}, Select(q, All()))
	assert.Empty(t, Select(nil, All()))
}

func TestSelectionValidate(t *testing.T) {
	assert.NoError(t, All().Validate())
	assert.NoError(t, FirstUnwatched(3).Validate())
	assert.Error(t, FirstUnwatched(-1).Validate())
	assert.Error(t, Selection{Mode: "bogus"}.Validate())
	assert.Equal(t, "first 3 unwatched", FirstUnwatched(3).String())
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount(" 12\n")
	assert.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, in := range []string{"", "abc", "-1", "1.5", "3 videos"} {
		_, err := ParseCount(in)
		assert.Error(t, err, "input %q", in)
	}
}
