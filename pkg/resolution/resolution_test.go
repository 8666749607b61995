// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package resolution

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"daml.com/x/assetres/pkg/assetmanifest"
	"daml.com/x/assetres/pkg/assetstore"
	"daml.com/x/assetres/pkg/future"
	"daml.com/x/assetres/pkg/resolutionerrors"
	"daml.com/x/assetres/pkg/variant"
	"github.com/fxamacker/cbor/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heart = "assets/heart.png"

var legacyManifest = []byte(`{
	"assets/heart.png": ["assets/heart.png", "assets/2.0x/heart.png", "assets/4.0x/heart.png"]
}`)

func modernManifest(t *testing.T) []byte {
	data, err := cbor.Marshal(map[string][]assetmanifest.ModernEntry{
		heart: {
			{Asset: heart, DPR: 1},
			{Asset: "assets/hi/heart.png", DPR: 2},
			{Asset: "assets/xhi/heart.png", DPR: 4},
		},
	})
	require.NoError(t, err)
	return data
}

// recordingStore records the names fetched, in order
type recordingStore struct {
	assetstore.Store

	mu      sync.Mutex
	fetched []string
}

func (s *recordingStore) Fetch(ctx context.Context, name string) future.Result[[]byte] {
	s.mu.Lock()
	s.fetched = append(s.fetched, name)
	s.mu.Unlock()
	return s.Store.Fetch(ctx, name)
}

func (s *recordingStore) Fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

// asyncStore completes fetches on another goroutine once the gate is opened
type asyncStore struct {
	*recordingStore
	gate chan struct{}
}

func (s *asyncStore) Fetch(ctx context.Context, name string) future.Result[[]byte] {
	return future.Go(func() ([]byte, error) {
		<-s.gate
		return s.recordingStore.Fetch(ctx, name).Await(ctx)
	})
}

func newStore(files map[string][]byte) *recordingStore {
	return &recordingStore{Store: assetstore.NewMemory("mem", files)}
}

func newAsyncStore(files map[string][]byte) *asyncStore {
	return &asyncStore{recordingStore: newStore(files), gate: make(chan struct{})}
}

func await(t *testing.T, r future.Result[*Resolved]) (*Resolved, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Await(ctx)
}

func TestResolveModern(t *testing.T) {
	store := newStore(map[string][]byte{
		assetmanifest.DefaultModernManifestName: modernManifest(t),
		assetmanifest.DefaultLegacyManifestName: legacyManifest,
	})
	r := New(store, Options{})

	result := r.Resolve(context.Background(), heart, lo.ToPtr(3.5))
	require.True(t, result.IsReady(), "a synchronous store yields a ready result")

	resolved, ok, err := result.Now()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "assets/xhi/heart.png", resolved.Path)
	assert.Equal(t, 4.0, resolved.Scale)
	assert.Equal(t, assetmanifest.Modern, resolved.Encoding)
	assert.Equal(t, variant.ResolutionKey{Store: "mem", Path: "assets/xhi/heart.png", Density: 4}, resolved.Key)
	assert.Equal(t, []string{assetmanifest.DefaultModernManifestName}, store.Fetched())
}

func TestResolveScenario(t *testing.T) {
	r := New(newStore(map[string][]byte{assetmanifest.DefaultLegacyManifestName: legacyManifest}), Options{})

	tests := []struct {
		target *float64
		want   float64
	}{
		{target: nil, want: 1},
		{target: lo.ToPtr(1.0), want: 1},
		{target: lo.ToPtr(1.25), want: 2},
		{target: lo.ToPtr(2.25), want: 2},
		{target: lo.ToPtr(3.0), want: 2},
		{target: lo.ToPtr(3.25), want: 4},
		{target: lo.ToPtr(8.0), want: 4},
	}

	for _, tt := range tests {
		resolved, err := r.ResolveSync(context.Background(), heart, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resolved.Scale, "target %v", lo.FromPtr(tt.target))
	}

	resolved, err := r.ResolveSync(context.Background(), "assets/unknown.png", lo.ToPtr(3.0))
	require.NoError(t, err)
	assert.Equal(t, "assets/unknown.png", resolved.Path)
	assert.Equal(t, 1.0, resolved.Scale)
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name  string
		files map[string][]byte
	}{
		{
			name:  "modern missing",
			files: map[string][]byte{assetmanifest.DefaultLegacyManifestName: legacyManifest},
		},
		{
			name: "modern malformed",
			files: map[string][]byte{
				assetmanifest.DefaultModernManifestName: []byte("not cbor at all"),
				assetmanifest.DefaultLegacyManifestName: legacyManifest,
			},
		},
		{
			name: "modern empty",
			files: map[string][]byte{
				assetmanifest.DefaultModernManifestName: {0xf6},
				assetmanifest.DefaultLegacyManifestName: legacyManifest,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(tt.files)
			resolved, err := New(store, Options{}).ResolveSync(context.Background(), heart, lo.ToPtr(2.0))
			require.NoError(t, err)
			assert.Equal(t, "assets/2.0x/heart.png", resolved.Path)
			assert.Equal(t, assetmanifest.Legacy, resolved.Encoding)
			assert.Equal(t, []string{assetmanifest.DefaultModernManifestName, assetmanifest.DefaultLegacyManifestName}, store.Fetched())
		})
	}
}

func TestTerminalFailure(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string][]byte
		code     string
		sentinel error
	}{
		{
			name:     "no manifests",
			files:    map[string][]byte{},
			code:     resolutionerrors.ManifestNotFound,
			sentinel: assetstore.ErrNotFound,
		},
		{
			name:     "malformed legacy",
			files:    map[string][]byte{assetmanifest.DefaultLegacyManifestName: []byte(`{"a": 1}`)},
			code:     resolutionerrors.MalformedManifest,
			sentinel: assetmanifest.ErrMalformedJson,
		},
		{
			name:     "malformed modern, legacy missing",
			files:    map[string][]byte{assetmanifest.DefaultModernManifestName: {0xf6}},
			code:     resolutionerrors.MalformedManifest,
			sentinel: assetmanifest.ErrEmptyManifest,
		},
		{
			name: "both malformed",
			files: map[string][]byte{
				assetmanifest.DefaultModernManifestName: {0xf6},
				assetmanifest.DefaultLegacyManifestName: []byte(`[`),
			},
			code:     resolutionerrors.MalformedManifest,
			sentinel: assetmanifest.ErrEmptyManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(tt.files)
			result := New(store, Options{}).Resolve(context.Background(), heart, lo.ToPtr(2.0))
			require.True(t, result.IsReady())

			resolved, _, err := result.Now()
			assert.Nil(t, resolved)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var resErr *resolutionerrors.ResolutionError
			require.True(t, errors.As(err, &resErr))
			assert.Equal(t, tt.code, resErr.Code)
			assert.Equal(t, heart, resErr.AssetKey)
			assert.Equal(t, []string{assetmanifest.DefaultModernManifestName, assetmanifest.DefaultLegacyManifestName}, resErr.Attempted)

			// legacy was attempted before the error surfaced
			assert.Equal(t, []string{assetmanifest.DefaultModernManifestName, assetmanifest.DefaultLegacyManifestName}, store.Fetched())
		})
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	mem := assetstore.NewMemory("mem", nil)
	r := New(mem, Options{})

	_, err := r.ResolveSync(context.Background(), heart, lo.ToPtr(2.0))
	require.Error(t, err)

	mem.Put(assetmanifest.DefaultLegacyManifestName, legacyManifest)
	resolved, err := r.ResolveSync(context.Background(), heart, lo.ToPtr(2.0))
	require.NoError(t, err)
	assert.Equal(t, 2.0, resolved.Scale)

	// served from the acquired manifest until invalidated
	mem.Delete(assetmanifest.DefaultLegacyManifestName)
	_, err = r.ResolveSync(context.Background(), heart, lo.ToPtr(2.0))
	require.NoError(t, err)

	r.Invalidate()
	_, err = r.ResolveSync(context.Background(), heart, lo.ToPtr(2.0))
	var resErr *resolutionerrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, resolutionerrors.ManifestNotFound, resErr.Code)
}

func TestManifestIsCached(t *testing.T) {
	store := newStore(map[string][]byte{assetmanifest.DefaultLegacyManifestName: legacyManifest})
	r := New(store, Options{})

	for range 3 {
		_, err := r.ResolveSync(context.Background(), heart, lo.ToPtr(2.0))
		require.NoError(t, err)
	}
	assert.Len(t, store.Fetched(), 2)

	r.Invalidate()
	_, err := r.ResolveSync(context.Background(), heart, lo.ToPtr(2.0))
	require.NoError(t, err)
	assert.Len(t, store.Fetched(), 4)
}

func TestCustomManifestNames(t *testing.T) {
	store := newStore(map[string][]byte{"manifest.json": legacyManifest})
	r := New(store, Options{ModernManifestName: "manifest.bin", LegacyManifestName: "manifest.json"})

	resolved, err := r.ResolveSync(context.Background(), heart, lo.ToPtr(4.0))
	require.NoError(t, err)
	assert.Equal(t, 4.0, resolved.Scale)
	assert.Equal(t, []string{"manifest.bin", "manifest.json"}, store.Fetched())
}

func TestAsyncCompletesOnce(t *testing.T) {
	store := newAsyncStore(map[string][]byte{assetmanifest.DefaultModernManifestName: modernManifest(t)})
	r := New(store, Options{})

	result := r.Resolve(context.Background(), heart, lo.ToPtr(2.0))
	assert.False(t, result.IsReady(), "an asynchronous store yields a pending result")
	_, ok, _ := result.Now()
	assert.False(t, ok)

	var calls atomic.Int32
	notified := make(chan *Resolved, 2)
	result.OnComplete(func(resolved *Resolved, err error) {
		assert.NoError(t, err)
		calls.Add(1)
		notified <- resolved
	})

	close(store.gate)

	select {
	case resolved := <-notified:
		assert.Equal(t, "assets/hi/heart.png", resolved.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the resolution")
	}

	resolved, err := await(t, result)
	require.NoError(t, err)
	assert.Equal(t, 2.0, resolved.Scale)

	// give a stray second completion a chance to show up
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, notified, 0)

	// once acquired, the manifest is served synchronously
	assert.Eventually(t, func() bool {
		return r.Resolve(context.Background(), heart, lo.ToPtr(4.0)).IsReady()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAsyncFallback(t *testing.T) {
	store := newAsyncStore(map[string][]byte{assetmanifest.DefaultLegacyManifestName: legacyManifest})
	close(store.gate)

	resolved, err := await(t, New(store, Options{}).Resolve(context.Background(), heart, lo.ToPtr(1.5)))
	require.NoError(t, err)
	assert.Equal(t, "assets/2.0x/heart.png", resolved.Path)
	assert.Equal(t, []string{assetmanifest.DefaultModernManifestName, assetmanifest.DefaultLegacyManifestName}, store.Fetched())
}

func TestAsyncTerminalFailure(t *testing.T) {
	store := newAsyncStore(map[string][]byte{})
	close(store.gate)

	_, err := await(t, New(store, Options{}).Resolve(context.Background(), heart, lo.ToPtr(1.5)))
	var resErr *resolutionerrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, resolutionerrors.ManifestNotFound, resErr.Code)
	assert.Equal(t, heart, resErr.AssetKey)
}

func TestConcurrentAcquisitionIsShared(t *testing.T) {
	store := newAsyncStore(map[string][]byte{assetmanifest.DefaultModernManifestName: modernManifest(t)})
	r := New(store, Options{})

	results := lo.Times(5, func(_ int) future.Result[*Resolved] {
		return r.Resolve(context.Background(), heart, lo.ToPtr(2.0))
	})
	close(store.gate)

	for _, result := range results {
		resolved, err := await(t, result)
		require.NoError(t, err)
		assert.Equal(t, 2.0, resolved.Scale)
	}
	assert.Equal(t, []string{assetmanifest.DefaultModernManifestName}, store.Fetched())
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	store := newAsyncStore(map[string][]byte{assetmanifest.DefaultModernManifestName: modernManifest(t)})
	r := New(store, Options{})

	first, cancelFirst := context.WithCancel(context.Background())
	firstResult := r.Resolve(first, heart, lo.ToPtr(2.0))
	secondResult := r.Resolve(context.Background(), heart, lo.ToPtr(2.0))

	cancelFirst()
	_, err := firstResult.Await(first)
	assert.ErrorIs(t, err, context.Canceled)

	close(store.gate)
	resolved, err := await(t, secondResult)
	require.NoError(t, err)
	assert.Equal(t, 2.0, resolved.Scale)
	assert.Equal(t, []string{assetmanifest.DefaultModernManifestName}, store.Fetched())
}

func TestInvalidateDuringAcquisition(t *testing.T) {
	store := newAsyncStore(map[string][]byte{assetmanifest.DefaultModernManifestName: modernManifest(t)})
	r := New(store, Options{})

	result := r.Resolve(context.Background(), heart, lo.ToPtr(2.0))
	require.False(t, result.IsReady())
	r.Invalidate()
	close(store.gate)

	_, err := await(t, result)
	require.NoError(t, err)

	// give the completed acquisition a chance to refill the cache
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, r.cached.Load())

	_, err = await(t, r.Resolve(context.Background(), heart, lo.ToPtr(2.0)))
	require.NoError(t, err)
	assert.Len(t, store.Fetched(), 2)
}

func TestState(t *testing.T) {
	assert.Equal(t, "try-legacy", TryLegacy.String())
	assert.Equal(t, "Unknown", State(99).String())
}
