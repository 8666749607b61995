// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ocicache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
)

// countingTarget counts origin fetches and can be taken offline
type countingTarget struct {
	oras.ReadOnlyTarget
	fetches atomic.Int32
	offline atomic.Bool
}

var errOffline = errors.New("offline")

func (c *countingTarget) Fetch(ctx context.Context, target ocispec.Descriptor) (io.ReadCloser, error) {
	if c.offline.Load() {
		return nil, errOffline
	}
	c.fetches.Add(1)
	return c.ReadOnlyTarget.Fetch(ctx, target)
}

func (c *countingTarget) Resolve(ctx context.Context, reference string) (ocispec.Descriptor, error) {
	if c.offline.Load() {
		return ocispec.Descriptor{}, errOffline
	}
	return c.ReadOnlyTarget.Resolve(ctx, reference)
}

func setup(t *testing.T) (*countingTarget, *Target, ocispec.Descriptor) {
	ctx := context.Background()
	origin := memory.New()

	blob := []byte("AssetManifest.json contents")
	desc := content.NewDescriptorFromBytes(ocispec.MediaTypeImageLayer, blob)
	require.NoError(t, origin.Push(ctx, desc, bytes.NewReader(blob)))
	require.NoError(t, origin.Tag(ctx, desc, "latest"))

	counting := &countingTarget{ReadOnlyTarget: origin}
	cached, err := CachedTarget(counting, t.TempDir())
	require.NoError(t, err)
	return counting, cached, desc
}

func TestFetchIsCached(t *testing.T) {
	ctx := context.Background()
	origin, cached, desc := setup(t)

	for range 3 {
		data, err := content.FetchAll(ctx, cached, desc)
		require.NoError(t, err)
		assert.Equal(t, "AssetManifest.json contents", string(data))
	}
	assert.Equal(t, int32(1), origin.fetches.Load())

	origin.offline.Store(true)
	data, err := content.FetchAll(ctx, cached, desc)
	require.NoError(t, err)
	assert.Equal(t, "AssetManifest.json contents", string(data))

	exists, err := cached.Exists(ctx, desc)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestConcurrentFetches(t *testing.T) {
	ctx := context.Background()
	origin, cached, desc := setup(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := content.FetchAll(ctx, cached, desc)
			assert.NoError(t, err)
			assert.Equal(t, "AssetManifest.json contents", string(data))
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, origin.fetches.Load(), int32(8))
	assert.GreaterOrEqual(t, origin.fetches.Load(), int32(1))
}

func TestResolveFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	origin, cached, desc := setup(t)

	_, err := cached.Resolve(ctx, "latest")
	require.NoError(t, err)

	origin.offline.Store(true)
	resolved, err := cached.Resolve(ctx, "latest")
	require.NoError(t, err)
	assert.Equal(t, desc.Digest, resolved.Digest)

	_, err = cached.Resolve(ctx, "never-seen")
	assert.ErrorIs(t, err, errOffline)
}

