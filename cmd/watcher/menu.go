package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"watcher/tasks"
)

// choice is what the operator asked for: a login session or a run over a selection.
type choice struct {
	login bool
	sel   tasks.Selection
}

const (
	modeLogin = "login"
	modeAll   = string(tasks.ModeAll)
	modeSome  = string(tasks.ModeFirstUnwatched)
)

// choiceFromFlags maps -mode/-count. An empty mode means the menu should be shown.
func choiceFromFlags(mode string, count int) (choice, bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "":
		return choice{}, false, nil
	case modeLogin:
		return choice{login: true}, true, nil
	case modeAll:
		return choice{sel: tasks.All()}, true, nil
	case modeSome:
		if count < 0 {
			return choice{}, true, fmt.Errorf("-count must be non-negative, got %d", count)
		}
		return choice{sel: tasks.FirstUnwatched(count)}, true, nil
	default:
		return choice{}, true, fmt.Errorf("unknown -mode %q (want all, some or login)", mode)
	}
}

// promptMenu shows the three-way menu and, for a partial run, asks how many videos.
func promptMenu(ctx context.Context, in *bufio.Reader, out io.Writer) (choice, error) {
	fmt.Fprintln(out, "=== Rutube Watcher ===")
	fmt.Fprintln(out, "1. Watch all videos")
	fmt.Fprintln(out, "2. Watch some videos")
	fmt.Fprintln(out, "3. Log in to Rutube")
	fmt.Fprint(out, "Choose an action (1/2/3): ")

	line, err := readLine(ctx, in)
	if err != nil {
		return choice{}, err
	}
	switch line {
	case "1":
		return choice{sel: tasks.All()}, nil
	case "2":
		fmt.Fprint(out, "How many videos do you want to watch? Enter a number: ")
		raw, err := readLine(ctx, in)
		if err != nil {
			return choice{}, err
		}
		n, err := tasks.ParseCount(raw)
		if err != nil {
			return choice{}, fmt.Errorf("invalid number: %w", err)
		}
		return choice{sel: tasks.FirstUnwatched(n)}, nil
	case "3":
		return choice{login: true}, nil
	default:
		return choice{}, fmt.Errorf("invalid choice %q", line)
	}
}

// readLine returns the next line of input, or ctx's error as soon as ctx ends. A read
// abandoned on cancellation is left to the exiting process.
func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := in.ReadString('\n')
		done <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil && (r.err != io.EOF || r.line == "") {
			return "", fmt.Errorf("read input: %w", r.err)
		}
		return strings.TrimSpace(r.line), nil
	}
}
