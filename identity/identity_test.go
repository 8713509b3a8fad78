package identity

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTrims(t *testing.T) {
	p := filepath.Join(t.TempDir(), "user_info.txt")
	require.NoError(t, os.WriteFile(p, []byte("  abc123\n"), 0o600))

	id, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.True(t, errors.Is(err, ErrMissing))
}

func TestLoadBlankFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "user_info.txt")
	require.NoError(t, os.WriteFile(p, []byte(" \n\t"), 0o600))

	_, err := Load(p)
	assert.True(t, errors.Is(err, ErrMissing))
}
