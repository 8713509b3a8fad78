package tasks

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationTriples(t *testing.T) {
	for h := 0; h <= 3; h++ {
		for m := 0; m <= 75; m += 15 {
			for s := 0; s <= 90; s += 30 {
				in := fmtTriple(h, m, s)
				got, err := ParseDuration(in)
				require.NoError(t, err, in)
				want := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
				assert.Equal(t, want, got, in)
			}
		}
	}
}

func fmtTriple(h, m, s int) string {
	return fmt.Sprintf("%d:%d:%d", h, m, s)
}

func TestParseDurationExamples(t *testing.T) {
	cases := map[string]time.Duration{
		"0:0:0":    0,
		"1:02:03":  time.Hour + 2*time.Minute + 3*time.Second,
		"00:45:10": 45*time.Minute + 10*time.Second,
		" 2:0:5 ":  2*time.Hour + 5*time.Second,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, in := range []string{"", "10", "1:2", "1:2:3:4", "a:b:c", "1:-2:3", "1::3", "1.5:0:0"} {
		_, err := ParseDuration(in)
		assert.True(t, errors.Is(err, ErrInvalidDuration), "input %q", in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "09:05 07.03.2024", FormatTimestamp(ts))
}

func TestCloneIsIndependent(t *testing.T) {
	q := []VideoTask{{Link: "a"}, {Link: "b"}}
	c := Clone(q)
	c[0].Title = "changed"
	assert.Empty(t, q[0].Title)
	assert.Nil(t, Clone(nil))
}

func TestParseDurationRange(t *testing.T) {
	got, err := ParseDuration("2562047:47:16")
	require.NoError(t, err)
	assert.Equal(t, 2562047*time.Hour+47*time.Minute+16*time.Second, got)

	for _, in := range []string{"3000000:0:0", "2562047:47:17", "0:0:9223372037", "0:153722867:281", "99999999999999999999:0:0"} {
		d, err := ParseDuration(in)
		assert.True(t, errors.Is(err, ErrInvalidDuration), "input %q", in)
		assert.Zero(t, d, "input %q", in)
	}
}
