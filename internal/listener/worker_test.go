package listener

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerRunsTasksInSubmissionOrder(t *testing.T) {
	w := New(Config{Name: "test"})
	defer w.Stop(time.Second)

	var order []int32
	done := make(chan struct{})
	var n int32

	for i := int32(0); i < 20; i++ {
		i := i
		require.NoError(t, w.Submit(Task{
			ID: "task",
			Fn: func(ctx context.Context) error {
				order = append(order, i)
				if atomic.AddInt32(&n, 1) == 20 {
					close(done)
				}
				return nil
			},
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not complete in time")
	}

	for i, v := range order {
		assert.Equal(t, int32(i), v, "tasks must apply in submission order")
	}
}

func TestWorkerSubmitAfterStopIsRejected(t *testing.T) {
	w := New(Config{Name: "test"})
	require.NoError(t, w.Stop(time.Second))

	err := w.Submit(Task{ID: "late", Fn: func(ctx context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	w := New(Config{Name: "test"})
	defer w.Stop(time.Second)

	done := make(chan struct{})
	require.NoError(t, w.Submit(Task{
		ID: "panics",
		Fn: func(ctx context.Context) error {
			defer close(done)
			panic("boom")
		},
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking task did not run")
	}

	stats := w.Stats()
	assert.Equal(t, uint64(1), stats.FailedTasks)
}
