package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stock-service/internal/storage"
)

type failingArchive struct {
	storage.Archive
}

func (failingArchive) PurgeOlderThan(context.Context, time.Time) (int, error) {
	return 0, errors.New("bucket unavailable")
}

func TestArchivePurgeJob_RunOnce(t *testing.T) {
	dir := t.TempDir()
	archive, err := storage.NewLocalArchive(dir)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	oldKey := storage.ArchiveKey("catalog", "old.csv", now)
	newKey := storage.ArchiveKey("expiry", "new.csv", now)
	_, err = archive.Save(ctx, oldKey, strings.NewReader("a"))
	require.NoError(t, err)
	_, err = archive.Save(ctx, newKey, strings.NewReader("b"))
	require.NoError(t, err)

	old := now.Add(-40 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, oldKey), old, old))
	recent := now.Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, newKey), recent, recent))

	logger, hook := test.NewNullLogger()
	job := NewArchivePurgeJob(archive, time.Hour, 30*24*time.Hour, logger)
	job.now = func() time.Time { return now }

	assert.Equal(t, 1, job.RunOnce(ctx))
	_, err = os.Stat(filepath.Join(dir, oldKey))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, newKey))
	assert.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, 1, hook.LastEntry().Data["removed"])

	assert.Equal(t, 0, job.RunOnce(ctx))
}

func TestArchivePurgeJob_ZeroRetentionKeepsEverything(t *testing.T) {
	logger, _ := test.NewNullLogger()
	job := NewArchivePurgeJob(failingArchive{}, time.Hour, 0, logger)
	assert.Equal(t, 0, job.RunOnce(context.Background()))
}

func TestArchivePurgeJob_LogsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	job := NewArchivePurgeJob(failingArchive{}, time.Hour, time.Hour, logger)

	job.RunOnce(context.Background())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestArchivePurgeJob_StartStops(t *testing.T) {
	archive, err := storage.NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	job := NewArchivePurgeJob(archive, time.Hour, time.Hour, logger)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()
	job.Stop()
	job.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
}
