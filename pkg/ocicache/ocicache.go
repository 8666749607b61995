// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ocicache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"golang.org/x/sync/singleflight"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"
)

// Storage is where cached content and the tags it was resolved from are kept
type Storage interface {
	content.Storage
	content.TagResolver
}

// CachedTarget wraps src with an oci-layout cache at ociLayoutCache
func CachedTarget(src oras.ReadOnlyTarget, ociLayoutCache string) (*Target, error) {
	ociStore, err := oci.New(ociLayoutCache)
	if err != nil {
		return nil, err
	}
	return New(src, ociStore), nil
}

// Target serves content from the cache, fetching it from the origin only once.
// Tags resolved against the origin are recorded in the cache, so a tag can
// still be resolved when the origin is unreachable.
type Target struct {
	origin oras.ReadOnlyTarget
	cache  Storage
	sf     singleflight.Group
}

var _ oras.ReadOnlyTarget = (*Target)(nil)

func New(origin oras.ReadOnlyTarget, cache Storage) *Target {
	return &Target{origin: origin, cache: cache}
}

// Resolve resolves reference against the origin, falling back to the cache
func (t *Target) Resolve(ctx context.Context, reference string) (ocispec.Descriptor, error) {
	desc, err := t.origin.Resolve(ctx, reference)
	if err != nil {
		cached, cacheErr := t.cache.Resolve(ctx, reference)
		if cacheErr != nil {
			return ocispec.Descriptor{}, err
		}
		slog.WarnContext(ctx, "registry unavailable, using cached reference", "reference", reference, "digest", cached.Digest, "err", err)
		return cached, nil
	}

	if err := t.ensureCached(ctx, desc); err != nil {
		return ocispec.Descriptor{}, err
	}
	if err := t.cache.Tag(ctx, desc, reference); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("failed to record %q in cache: %w", reference, err)
	}
	return desc, nil
}

// Fetch fetches the content identified by the descriptor
func (t *Target) Fetch(ctx context.Context, target ocispec.Descriptor) (io.ReadCloser, error) {
	if err := t.ensureCached(ctx, target); err != nil {
		return nil, err
	}
	return t.cache.Fetch(ctx, target)
}

// Exists returns true if the described content exists in the cache or the origin
func (t *Target) Exists(ctx context.Context, target ocispec.Descriptor) (bool, error) {
	exists, err := t.cache.Exists(ctx, target)
	if err == nil && exists {
		return true, nil
	}
	return t.origin.Exists(ctx, target)
}

// ensureCached copies target from the origin into the cache unless it is already there.
// Concurrent requests for the same digest share a single download.
func (t *Target) ensureCached(ctx context.Context, target ocispec.Descriptor) error {
	if exists, err := t.cache.Exists(ctx, target); err == nil && exists {
		return nil
	}

	_, err, shared := t.sf.Do(target.Digest.String(), func() (any, error) {
		rc, err := t.origin.Fetch(ctx, target)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		slog.DebugContext(ctx, "caching blob", "digest", target.Digest, "size", target.Size)
		if err := t.cache.Push(ctx, target, rc); err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
			return nil, fmt.Errorf("failed to cache %s: %w", target.Digest, err)
		}
		return nil, nil
	})
	if shared {
		slog.DebugContext(ctx, "shared blob download", "digest", target.Digest)
	}
	return err
}
