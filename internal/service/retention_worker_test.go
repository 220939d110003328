package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/domain"
	"legalyzer/internal/port"
	"legalyzer/internal/service"
	"legalyzer/mocks"
)

func TestRetentionWorker_SweepDeletesBlobs(t *testing.T) {
	store := new(mocks.MockResultStore)
	storage := new(mocks.MockObjectStorage)
	ttl := 24 * time.Hour

	store.On("DeleteAnalysesBefore", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		age := time.Since(cutoff)
		return age >= ttl && age < ttl+time.Minute
	})).Return(&port.ClearResult{Analyses: 2, Tasks: 1, BlobKeys: []string{"originals/a.pdf", "exports/t.json"}}, nil)
	storage.On("Delete", mock.Anything, testBucket, "originals/a.pdf").Return(nil)
	storage.On("Delete", mock.Anything, testBucket, "exports/t.json").Return(errors.New("gone"))

	worker := service.NewRetentionWorker(store, storage, service.RetentionConfig{Bucket: testBucket, TTL: ttl, Interval: time.Hour})
	removed, err := worker.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	storage.AssertNumberOfCalls(t, "Delete", 2)
}

func TestRetentionWorker_SweepStoreError(t *testing.T) {
	store := new(mocks.MockResultStore)
	storage := new(mocks.MockObjectStorage)
	store.On("DeleteAnalysesBefore", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil, errors.New("db down"))

	worker := service.NewRetentionWorker(store, storage, service.RetentionConfig{Bucket: testBucket, TTL: time.Hour})
	_, err := worker.Sweep(context.Background())

	assert.Error(t, err)
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetentionWorker_TicksUntilCanceled(t *testing.T) {
	store := new(mocks.MockResultStore)
	storage := new(mocks.MockObjectStorage)
	store.On("DeleteAnalysesBefore", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(&port.ClearResult{}, nil).Maybe()

	worker := service.NewRetentionWorker(store, storage, service.RetentionConfig{Bucket: testBucket, TTL: time.Hour, Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
	store.AssertCalled(t, "DeleteAnalysesBefore", mock.Anything, mock.AnythingOfType("time.Time"))
}

func TestRetentionWorker_ZeroTTLDisabled(t *testing.T) {
	store := new(mocks.MockResultStore)
	worker := service.NewRetentionWorker(store, new(mocks.MockObjectStorage), service.RetentionConfig{TTL: 0})

	done := make(chan struct{})
	go func() {
		worker.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled retention worker should return immediately")
	}
	store.AssertNotCalled(t, "DeleteAnalysesBefore", mock.Anything, mock.Anything)
}

func TestRetentionWorker_StatusTracksPasses(t *testing.T) {
	store := new(mocks.MockResultStore)
	storage := new(mocks.MockObjectStorage)
	store.On("DeleteAnalysesBefore", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(&port.ClearResult{Analyses: 3}, nil).Once()
	store.On("DeleteAnalysesBefore", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(nil, errors.New("db down")).Once()

	worker := service.NewRetentionWorker(store, storage, service.RetentionConfig{Bucket: testBucket, TTL: 2 * time.Hour, Interval: time.Minute})

	st := worker.Status()
	assert.True(t, st.Enabled)
	assert.Equal(t, 7200.0, st.TTLSeconds)
	assert.Equal(t, 60.0, st.IntervalSecs)
	assert.Zero(t, st.Runs)
	assert.Nil(t, st.LastRunAt)

	removed, err := worker.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	st = worker.Status()
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 3, st.LastRemoved)
	assert.Equal(t, 3, st.TotalRemoved)
	require.NotNil(t, st.LastRunAt)

	_, err = worker.Cleanup(context.Background())
	require.Error(t, err)

	st = worker.Status()
	assert.Equal(t, 2, st.Runs)
	assert.Equal(t, "db down", st.LastError)
	assert.Equal(t, 3, st.TotalRemoved)
}

func TestRetentionWorker_CleanupRefusedWhenDisabled(t *testing.T) {
	store := new(mocks.MockResultStore)
	worker := service.NewRetentionWorker(store, new(mocks.MockObjectStorage), service.RetentionConfig{TTL: 0})

	assert.False(t, worker.Status().Enabled)
	_, err := worker.Cleanup(context.Background())
	assert.ErrorIs(t, err, domain.ErrRetentionDisabled)
	store.AssertNotCalled(t, "DeleteAnalysesBefore", mock.Anything, mock.Anything)
}
