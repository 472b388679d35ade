package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-backend/pkg/logger"
)

type fakeOutboxRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestOutboxRetentionJob_deletesWithConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{deleted: 7}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository:    repo,
		RetentionDays: 14,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := now.Add(-14 * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", repo.cutoff, want)
	}
}

func TestOutboxRetentionJob_wrapsRepositoryError(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{err: errors.New("connection reset")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from repository")
	}
}
