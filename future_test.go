package riak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Complete(t *testing.T) {
	f := newFuture[int]()

	select {
	case <-f.Done():
		t.Fatal("future should not be done")
	default:
	}

	go f.complete(42, nil)

	v, err := f.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFuture_FirstCompletionWins(t *testing.T) {
	f := newFuture[string]()
	f.complete("first", nil)
	f.complete("second", errors.New("late"))

	v, err := f.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestFuture_Failed(t *testing.T) {
	boom := errors.New("boom")
	f := failedFuture[int](boom)

	<-f.Done()
	v, err := f.Wait(t.Context())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, v)
}

func TestFuture_WaitCancelled(t *testing.T) {
	f := newFuture[int]()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The result is still delivered later.
	f.complete(7, nil)
	v, err := f.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
