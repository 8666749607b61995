// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package future provides a result that is either available as soon as it's
// returned, or completes exactly once at some later point.
//
// Producers that have their answer at hand return Ready or Failed, and the
// whole chain built on top of them with Then completes within the same call.
// Producers that have to wait on I/O hand out the Result of a Completer.
package future

import (
	"context"
	"errors"
	"sync"
)

var ErrAlreadyCompleted = errors.New("result already completed")

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

type state[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// Result is the outcome of an operation, either ready now or pending
type Result[T any] struct {
	ready bool
	value T
	err   error

	pending *state[T]
}

func Ready[T any](v T) Result[T] {
	return Result[T]{ready: true, value: v}
}

func Failed[T any](err error) Result[T] {
	return Result[T]{ready: true, err: err}
}

// Of is a ready result of (v, err), in the shape most functions return
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Ready(v)
}

// IsReady reports whether the result was complete when it was handed out.
// It stays false for a pending result, even after it completes.
func (r Result[T]) IsReady() bool {
	return r.ready || r.pending == nil
}

// Now returns the outcome of a ready result. ok is false for pending results.
func (r Result[T]) Now() (value T, ok bool, err error) {
	if !r.IsReady() {
		return value, false, nil
	}
	return r.value, true, r.err
}

// Done is closed once the result has completed
func (r Result[T]) Done() <-chan struct{} {
	if r.IsReady() {
		return closed
	}
	return r.pending.done
}

// Await blocks until the result completes or ctx is done.
// A ready result never blocks.
func (r Result[T]) Await(ctx context.Context) (T, error) {
	if r.IsReady() {
		return r.value, r.err
	}

	select {
	case <-r.pending.done:
		return r.pending.value, r.pending.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete calls fn once with the outcome. For a ready result fn runs
// before OnComplete returns, otherwise on another goroutine.
func (r Result[T]) OnComplete(fn func(T, error)) {
	if r.IsReady() {
		fn(r.value, r.err)
		return
	}
	go func() {
		<-r.pending.done
		fn(r.pending.value, r.pending.err)
	}()
}

// Then chains fn onto r. If r and the result of fn are both ready, so is the
// returned result, and fn has already run.
func Then[T, U any](r Result[T], fn func(T, error) Result[U]) Result[U] {
	if r.IsReady() {
		return fn(r.value, r.err)
	}

	c := NewCompleter[U]()
	r.OnComplete(func(v T, err error) {
		fn(v, err).OnComplete(func(u U, err error) {
			_ = c.Complete(u, err)
		})
	})
	return c.Result()
}

// Completer produces a pending Result and completes it
type Completer[T any] struct {
	s *state[T]
}

func NewCompleter[T any]() *Completer[T] {
	return &Completer[T]{s: &state[T]{done: make(chan struct{})}}
}

func (c *Completer[T]) Result() Result[T] {
	return Result[T]{pending: c.s}
}

// Complete sets the outcome of the result.
// Only the first call takes effect; later ones return ErrAlreadyCompleted.
func (c *Completer[T]) Complete(v T, err error) error {
	completed := false
	c.s.once.Do(func() {
		c.s.value, c.s.err = v, err
		close(c.s.done)
		completed = true
	})
	if !completed {
		return ErrAlreadyCompleted
	}
	return nil
}

// Go runs fn on a new goroutine and returns its pending result
func Go[T any](fn func() (T, error)) Result[T] {
	c := NewCompleter[T]()
	go func() {
		_ = c.Complete(fn())
	}()
	return c.Result()
}
