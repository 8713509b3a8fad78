package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watcher/config"
	"watcher/eventbus"
	"watcher/progress"
	"watcher/tasks"
)

func writeQueue(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "links.json")
	data := `[{"Link": "https://rutube.ru/video/a/", "Duration": "0:1:0", "isWatched": false}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestOpenStoreFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.QueuePath = writeQueue(t, dir)
	cfg.ExportPath = filepath.Join(dir, "progress.xlsx")

	store, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	defer closeStore()
	require.IsType(t, &progress.FileStore{}, store)

	q, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, q, 1)

	q[0].IsWatched = true
	require.NoError(t, store.Save(context.Background(), q))
	_, err = os.Stat(cfg.ExportPath)
	assert.NoError(t, err, "export written alongside the queue")
}

func TestOpenStoreRedisSeedsFromFile(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.QueuePath = writeQueue(t, dir)
	cfg.ExportPath = ""
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.RedisURL = "redis://" + mr.Addr()

	store, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	defer closeStore()

	q, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.False(t, mr.Exists(cfg.Store.RedisKey))

	q[0].Start = tasks.FormatTimestamp(time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local))
	require.NoError(t, store.Save(context.Background(), q))
	assert.True(t, mr.Exists(cfg.Store.RedisKey))

	onDisk, err := progress.NewFileStore(cfg.QueuePath, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, q, onDisk)
}

func TestOpenStoreBadRedisURL(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.RedisURL = "not a url"
	_, _, err := openStore(cfg)
	assert.Error(t, err)
}

func TestOpenStoreMissingQueue(t *testing.T) {
	cfg := config.Default()
	cfg.QueuePath = filepath.Join(t.TempDir(), "missing.json")
	store, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	defer closeStore()

	_, err = store.Load(context.Background())
	assert.True(t, errors.Is(err, progress.ErrNotFound))
}

func TestOpenEventsWithoutURL(t *testing.T) {
	cfg := config.Default()
	bus, closeBus := openEvents(cfg)
	defer closeBus()
	assert.IsType(t, eventbus.NopBus{}, bus)
}
