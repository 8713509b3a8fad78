// Package progress persists the video queue between runs. Every Save rewrites the whole
// queue; there is no incremental update and no rollback.
package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"watcher/tasks"
)

// ErrNotFound means there is no persisted queue to resume from.
var ErrNotFound = errors.New("queue not found")

// Store is the durable home of the queue.
type Store interface {
	Load(ctx context.Context) ([]tasks.VideoTask, error)
	Save(ctx context.Context, queue []tasks.VideoTask) error
}

// Exporter renders a write-only mirror of the queue for people to read.
type Exporter interface {
	Export(queue []tasks.VideoTask) error
}

// export refreshes the mirror. The queue itself is already durable at this point, so a
// failed export (a spreadsheet held open by another program) is only logged.
func export(e Exporter, queue []tasks.VideoTask) {
	if e == nil {
		return
	}
	if err := e.Export(queue); err != nil {
		log.Printf("⚠️  Export failed, queue saved anyway: %v", err)
	}
}

func encodeQueue(queue []tasks.VideoTask) ([]byte, error) {
	if queue == nil {
		queue = []tasks.VideoTask{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(queue); err != nil {
		return nil, fmt.Errorf("encode queue: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeQueue(data []byte) ([]tasks.VideoTask, error) {
	var queue []tasks.VideoTask
	if len(bytes.TrimSpace(data)) == 0 {
		return queue, nil
	}
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return queue, nil
}

// writeAtomic writes through a temp file in the target directory and renames it over
// path, so readers see either the old or the new content.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}
