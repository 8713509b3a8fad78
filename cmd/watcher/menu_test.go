package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watcher/tasks"
)

func prompt(input string) (choice, string, error) {
	var out bytes.Buffer
	c, err := promptMenu(context.Background(), bufio.NewReader(strings.NewReader(input)), &out)
	return c, out.String(), err
}

func TestPromptMenuAll(t *testing.T) {
	c, out, err := prompt("1\n")
	require.NoError(t, err)
	assert.False(t, c.login)
	assert.Equal(t, tasks.All(), c.sel)
	assert.Contains(t, out, "3. Log in to Rutube")
}

func TestPromptMenuSome(t *testing.T) {
	c, out, err := prompt("2\n 4 \n")
	require.NoError(t, err)
	assert.Equal(t, tasks.FirstUnwatched(4), c.sel)
	assert.Contains(t, out, "How many videos")
}

func TestPromptMenuSomeRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"2\nfive\n", "2\n-3\n", "2\n\n", "2\n"} {
		_, _, err := prompt(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestPromptMenuLogin(t *testing.T) {
	c, _, err := prompt("3")
	require.NoError(t, err)
	assert.True(t, c.login)
}

func TestPromptMenuInvalidChoice(t *testing.T) {
	for _, in := range []string{"4\n", "all\n", "\n", ""} {
		_, _, err := prompt(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestChoiceFromFlags(t *testing.T) {
	_, ok, err := choiceFromFlags("", 0)
	assert.False(t, ok)
	assert.NoError(t, err)

	c, ok, err := choiceFromFlags("ALL", 0)
	assert.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, tasks.All(), c.sel)

	c, _, err = choiceFromFlags("some", 2)
	require.NoError(t, err)
	assert.Equal(t, tasks.FirstUnwatched(2), c.sel)

	c, _, err = choiceFromFlags("login", 0)
	require.NoError(t, err)
	assert.True(t, c.login)

	_, _, err = choiceFromFlags("some", -1)
	assert.Error(t, err)
	_, _, err = choiceFromFlags("everything", 0)
	assert.Error(t, err)
}

func TestPromptMenuReturnsOnInterrupt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := promptMenu(ctx, bufio.NewReader(pr), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Choose an action")
}

func TestPromptMenuInterruptAtCountPrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	go func() { _, _ = pw.Write([]byte("2\n")) }()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := promptMenu(ctx, bufio.NewReader(pr), io.Discard)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadLineWaitsForInput(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte(" done \n"))
		_ = pw.Close()
	}()
	line, err := readLine(context.Background(), bufio.NewReader(pr))
	require.NoError(t, err)
	assert.Equal(t, "done", line)
}
