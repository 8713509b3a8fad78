package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"watcher/tasks"
)

// FileStore keeps the queue in a JSON file, the single source of truth, and refreshes
// the export after each write.
type FileStore struct {
	Path     string
	Exporter Exporter
}

func NewFileStore(path string, exporter Exporter) *FileStore {
	return &FileStore{Path: path, Exporter: exporter}
}

func (s *FileStore) Load(ctx context.Context) ([]tasks.VideoTask, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, fmt.Errorf("read queue: %w", err)
	}
	return decodeQueue(data)
}

func (s *FileStore) Save(ctx context.Context, queue []tasks.VideoTask) error {
	data, err := encodeQueue(queue)
	if err != nil {
		return err
	}
	err = writeAtomic(s.Path, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write queue: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	export(s.Exporter, queue)
	return nil
}
