package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"stock-service/internal/storage"
)

// ArchivePurgeJob deletes archived uploads once they pass the retention period.
// Upload history rows are left in place.
type ArchivePurgeJob struct {
	archive   storage.Archive
	logger    *logrus.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewArchivePurgeJob creates a purge job that runs every interval.
func NewArchivePurgeJob(archive storage.Archive, interval, retention time.Duration, logger *logrus.Logger) *ArchivePurgeJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ArchivePurgeJob{
		archive:   archive,
		logger:    logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the purge immediately and then on every tick until Stop or ctx ends.
func (j *ArchivePurgeJob) Start(ctx context.Context) {
	j.logger.WithField("interval", j.interval.String()).Info("Archive purge job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.stopCh:
			j.logger.Info("Archive purge job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Archive purge job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop. It is safe to call more than once.
func (j *ArchivePurgeJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// RunOnce purges files older than the retention period and returns how many
// were removed. A non-positive retention disables purging.
func (j *ArchivePurgeJob) RunOnce(ctx context.Context) int {
	if j.retention <= 0 {
		return 0
	}
	cutoff := j.now().Add(-j.retention)
	removed, err := j.archive.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.WithError(err).WithField("removed", removed).Error("Failed to purge upload archive")
		return removed
	}
	if removed > 0 {
		j.logger.WithFields(logrus.Fields{
			"removed": removed,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Purged archived uploads")
	} else {
		j.logger.Debug("No archived uploads to purge")
	}
	return removed
}
