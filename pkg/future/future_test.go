// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package future

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestReady(t *testing.T) {
	r := Ready(42)
	assert.True(t, r.IsReady())

	v, ok, err := r.Now()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 42, v)

	select {
	case <-r.Done():
	default:
		t.Fatal("ready result must be done")
	}

	called := false
	r.OnComplete(func(v int, err error) {
		called = true
		assert.Equal(t, 42, v)
	})
	assert.True(t, called, "OnComplete of a ready result runs synchronously")
}

func TestOf(t *testing.T) {
	_, _, err := Of(1, errBoom).Now()
	assert.ErrorIs(t, err, errBoom)

	v, ok, err := Of(1, nil).Now()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestCompleter(t *testing.T) {
	c := NewCompleter[string]()
	r := c.Result()
	assert.False(t, r.IsReady())

	_, ok, _ := r.Now()
	assert.False(t, ok)

	require.NoError(t, c.Complete("first", nil))
	assert.ErrorIs(t, c.Complete("second", nil), ErrAlreadyCompleted)
	assert.ErrorIs(t, c.Complete("", errBoom), ErrAlreadyCompleted)

	v, err := r.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	// still pending-shaped after completion
	assert.False(t, r.IsReady())
}

func TestAwaitContext(t *testing.T) {
	c := NewCompleter[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Result().Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOnCompletePendingCalledOnce(t *testing.T) {
	c := NewCompleter[int]()
	var calls atomic.Int32
	done := make(chan struct{})
	c.Result().OnComplete(func(v int, err error) {
		calls.Add(1)
		close(done)
	})

	require.NoError(t, c.Complete(1, nil))
	_ = c.Complete(2, nil)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completion")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestThen(t *testing.T) {
	toString := func(v int, err error) Result[string] {
		if err != nil {
			return Failed[string](err)
		}
		return Ready(strconv.Itoa(v))
	}

	t.Run("ready stays ready", func(t *testing.T) {
		r := Then(Ready(7), toString)
		require.True(t, r.IsReady())
		v, _, err := r.Now()
		require.NoError(t, err)
		assert.Equal(t, "7", v)
	})

	t.Run("errors pass through", func(t *testing.T) {
		_, _, err := Then(Failed[int](errBoom), toString).Now()
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("pending input", func(t *testing.T) {
		c := NewCompleter[int]()
		r := Then(c.Result(), toString)
		assert.False(t, r.IsReady())

		require.NoError(t, c.Complete(9, nil))
		v, err := r.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "9", v)
	})

	t.Run("pending continuation", func(t *testing.T) {
		gate := make(chan struct{})
		r := Then(Ready(3), func(v int, err error) Result[string] {
			return Go(func() (string, error) {
				<-gate
				return strconv.Itoa(v * 2), nil
			})
		})
		assert.False(t, r.IsReady())
		close(gate)
		v, err := r.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "6", v)
	})
}
