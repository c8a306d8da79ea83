package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeArchive struct {
	mu       sync.Mutex
	failures int
	calls    int
	stored   map[string][]byte
	block    chan struct{}
}

func newFakeArchive(failures int) *fakeArchive {
	return &fakeArchive{failures: failures, stored: make(map[string][]byte)}
}

func (f *fakeArchive) Store(ctx context.Context, accessKey string, document []byte) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("bucket unavailable")
	}
	f.stored[accessKey] = document
	return nil
}

func (f *fakeArchive) snapshot() (int, map[string][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]byte, len(f.stored))
	for k, v := range f.stored {
		out[k] = v
	}
	return f.calls, out
}

func testConfig() QueueConfig {
	return QueueConfig{
		Workers:    1,
		BufferSize: 4,
		JobTimeout: time.Second,
		Retries:    2,
		RetryDelay: 10 * time.Millisecond,
	}
}

func TestJobLifecycle(t *testing.T) {
	job := NewJob("3524", []byte("<nfe/>"), 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.True(t, job.ShouldRetry())
	assert.Equal(t, "boom", job.Error)

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.NotNil(t, job.NextRetryAt)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("boom again")
	assert.False(t, job.ShouldRetry())

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestArchiveQueue_StoresInBackground(t *testing.T) {
	archive := newFakeArchive(0)
	q := NewArchiveQueue(testConfig(), archive, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))

	require.NoError(t, q.Store(context.Background(), "3524", []byte("<nfe/>")))
	require.NoError(t, q.Stop(context.Background()))

	calls, stored := archive.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []byte("<nfe/>"), stored["3524"])
}

func TestArchiveQueue_RetriesFailedUploads(t *testing.T) {
	archive := newFakeArchive(2)
	q := NewArchiveQueue(testConfig(), archive, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))
	defer func() { _ = q.Stop(context.Background()) }()

	require.NoError(t, q.Store(context.Background(), "3524", []byte("<nfe/>")))

	assert.Eventually(t, func() bool {
		_, stored := archive.snapshot()
		return stored["3524"] != nil
	}, time.Second, 5*time.Millisecond)

	calls, _ := archive.snapshot()
	assert.Equal(t, 3, calls)
}

func TestArchiveQueue_GivesUpAfterRetries(t *testing.T) {
	archive := newFakeArchive(10)
	q := NewArchiveQueue(testConfig(), archive, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))
	defer func() { _ = q.Stop(context.Background()) }()

	require.NoError(t, q.Store(context.Background(), "3524", []byte("<nfe/>")))

	assert.Eventually(t, func() bool {
		calls, _ := archive.snapshot()
		return calls == 3
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	calls, stored := archive.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, stored)
}

func TestArchiveQueue_NotRunning(t *testing.T) {
	q := NewArchiveQueue(testConfig(), newFakeArchive(0), nil)

	err := q.Store(context.Background(), "3524", nil)
	assert.ErrorIs(t, err, ErrQueueNotRunning)

	require.NoError(t, q.Start(context.Background()))
	require.NoError(t, q.Stop(context.Background()))

	err = q.Store(context.Background(), "3524", nil)
	assert.ErrorIs(t, err, ErrQueueNotRunning)
	assert.NoError(t, q.Stop(context.Background()))
}

func TestArchiveQueue_Full(t *testing.T) {
	archive := newFakeArchive(0)
	archive.block = make(chan struct{})
	cfg := testConfig()
	cfg.BufferSize = 1
	q := NewArchiveQueue(cfg, archive, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))

	require.NoError(t, q.Store(context.Background(), "a", nil))
	// the worker holds "a"; "b" fills the buffer
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Store(context.Background(), "b", nil))

	err := q.Store(context.Background(), "c", nil)
	assert.ErrorIs(t, err, ErrQueueFull)

	close(archive.block)
	require.NoError(t, q.Stop(context.Background()))
	_, stored := archive.snapshot()
	assert.Len(t, stored, 2)
}

func TestArchiveQueue_StopTimesOut(t *testing.T) {
	archive := newFakeArchive(0)
	archive.block = make(chan struct{})
	q := NewArchiveQueue(testConfig(), archive, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))
	require.NoError(t, q.Store(context.Background(), "a", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Stop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestArchiveQueue_DrainsAfterStartContextCancelled(t *testing.T) {
	archive := newFakeArchive(0)
	q := NewArchiveQueue(testConfig(), archive, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Start(ctx))
	cancel()

	require.NoError(t, q.Store(context.Background(), "3524", []byte("x")))
	require.NoError(t, q.Stop(context.Background()))

	_, stored := archive.snapshot()
	assert.Contains(t, stored, "3524")
}
