// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package resolution

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/assetmanifest"
	"daml.com/x/assetres/pkg/assetstore"
	"daml.com/x/assetres/pkg/future"
	"daml.com/x/assetres/pkg/resolutionerrors"
	"daml.com/x/assetres/pkg/variant"
	"daml.com/x/assetres/pkg/variantresolver"
)

type Options struct {
	ModernManifestName string
	LegacyManifestName string
}

func OptionsFromConfig(config *assetconfig.Config) Options {
	return Options{
		ModernManifestName: config.ModernManifestName,
		LegacyManifestName: config.LegacyManifestName,
	}
}

// Resolved is the variant chosen for an asset key
type Resolved struct {
	Key   variant.ResolutionKey `json:"key" yaml:"key"`
	Asset string                `json:"asset" yaml:"asset"`
	Path  string                `json:"path" yaml:"path"`
	// Scale is the density of the chosen variant, to be used as the image's scale factor
	Scale    float64                `json:"scale" yaml:"scale"`
	Encoding assetmanifest.Encoding `json:"-" yaml:"-"`
}

type cachedManifest struct {
	assetmanifest.Manifest
}

// Resolver resolves asset keys against the manifest of a single store.
//
// The manifest is acquired on first use, preferring the modern encoding and
// falling back to the legacy one, and is kept for later resolutions.
type Resolver struct {
	store assetstore.Store
	opts  Options

	cached atomic.Pointer[cachedManifest]

	mu       sync.Mutex
	inflight *future.Result[assetmanifest.Manifest]
	// bumped by Invalidate, so acquisitions started before it don't refill the cache
	generation uint64
}

func New(store assetstore.Store, opts Options) *Resolver {
	opts.ModernManifestName = cmp.Or(opts.ModernManifestName, assetmanifest.DefaultModernManifestName)
	opts.LegacyManifestName = cmp.Or(opts.LegacyManifestName, assetmanifest.DefaultLegacyManifestName)
	return &Resolver{store: store, opts: opts}
}

func NewFromConfig(config *assetconfig.Config, store assetstore.Store) *Resolver {
	return New(store, OptionsFromConfig(config))
}

func (r *Resolver) Store() assetstore.Store {
	return r.store
}

// Resolve chooses the variant of key best matching target, a nil target
// meaning the baseline variant.
//
// The returned result is ready when the manifest was already known or the store
// served it without waiting; otherwise it completes exactly once later on.
func (r *Resolver) Resolve(ctx context.Context, key string, target *float64) future.Result[*Resolved] {
	slog.DebugContext(ctx, "resolving asset", "key", key, "state", Start)
	return future.Then(r.Manifest(ctx), func(m assetmanifest.Manifest, err error) future.Result[*Resolved] {
		if err != nil {
			slog.DebugContext(ctx, "asset resolution failed", "key", key, "state", Error, "error", err)
			return future.Failed[*Resolved](withAssetKey(err, key))
		}

		slog.DebugContext(ctx, "choosing asset variant", "key", key, "manifest", m.Encoding(), "state", Resolve)
		v := variantresolver.Choose(key, m.Variants(key), target)
		slog.DebugContext(ctx, "resolved asset", "key", key, "path", v.Path, "density", v.Density, "state", Done)

		return future.Ready(&Resolved{
			Key:      variant.NewResolutionKey(r.store.Name(), v),
			Asset:    key,
			Path:     v.Path,
			Scale:    v.Density,
			Encoding: m.Encoding(),
		})
	})
}

// ResolveSync is Resolve, waiting for the answer if needed
func (r *Resolver) ResolveSync(ctx context.Context, key string, target *float64) (*Resolved, error) {
	return r.Resolve(ctx, key, target).Await(ctx)
}

// Manifest returns the store's manifest, acquiring it if it isn't known yet.
// Concurrent callers share a pending acquisition. Failures aren't remembered.
//
// The acquisition ignores the cancellation of ctx since other callers may be
// waiting on it; each caller stops waiting through Await with its own context.
func (r *Resolver) Manifest(ctx context.Context) future.Result[assetmanifest.Manifest] {
	if c := r.cached.Load(); c != nil {
		return future.Ready(c.Manifest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight != nil {
		return *r.inflight
	}

	result := r.acquire(context.WithoutCancel(ctx))
	if result.IsReady() {
		if m, _, err := result.Now(); err == nil {
			r.cached.Store(&cachedManifest{m})
		}
		return result
	}

	r.inflight = &result
	generation := r.generation

	// runs on another goroutine, the result isn't ready yet
	result.OnComplete(func(m assetmanifest.Manifest, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.generation != generation {
			return
		}
		r.inflight = nil
		if err == nil {
			r.cached.Store(&cachedManifest{m})
		}
	})
	return result
}

// Invalidate forgets the acquired manifest, and any acquisition still pending
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.inflight = nil
	r.cached.Store(nil)
}

func (r *Resolver) acquire(ctx context.Context) future.Result[assetmanifest.Manifest] {
	slog.DebugContext(ctx, "fetching asset manifest", "store", r.store.Name(), "name", r.opts.ModernManifestName, "state", TryModern)
	modern := r.fetchAndParse(ctx, r.opts.ModernManifestName, assetmanifest.Modern)

	return future.Then(modern, func(m assetmanifest.Manifest, modernErr error) future.Result[assetmanifest.Manifest] {
		if modernErr == nil {
			return future.Ready(m)
		}

		slog.DebugContext(ctx, "falling back to legacy asset manifest", "store", r.store.Name(),
			"name", r.opts.LegacyManifestName, "state", TryLegacy, "error", modernErr)
		legacy := r.fetchAndParse(ctx, r.opts.LegacyManifestName, assetmanifest.Legacy)

		return future.Then(legacy, func(m assetmanifest.Manifest, legacyErr error) future.Result[assetmanifest.Manifest] {
			if legacyErr != nil {
				return future.Failed[assetmanifest.Manifest](r.terminalError(modernErr, legacyErr))
			}
			return future.Ready(m)
		})
	})
}

func (r *Resolver) fetchAndParse(ctx context.Context, name string, encoding assetmanifest.Encoding) future.Result[assetmanifest.Manifest] {
	return future.Then(r.store.Fetch(ctx, name), func(raw []byte, err error) future.Result[assetmanifest.Manifest] {
		if err != nil {
			return future.Failed[assetmanifest.Manifest](fmt.Errorf("failed to fetch %s: %w", name, err))
		}
		m, err := assetmanifest.Parse(raw, encoding)
		if err != nil {
			return future.Failed[assetmanifest.Manifest](fmt.Errorf("failed to parse %s: %w", name, err))
		}
		return future.Ready(m)
	})
}

func (r *Resolver) terminalError(modernErr, legacyErr error) *resolutionerrors.ResolutionError {
	attempted := []string{r.opts.ModernManifestName, r.opts.LegacyManifestName}
	cause := errors.Join(modernErr, legacyErr)

	switch {
	case errors.Is(modernErr, assetstore.ErrNotFound) && errors.Is(legacyErr, assetstore.ErrNotFound):
		return resolutionerrors.NewManifestNotFoundError("", attempted, cause)
	case isMalformed(modernErr) || isMalformed(legacyErr):
		return resolutionerrors.NewMalformedManifestError("", attempted, cause)
	default:
		e := resolutionerrors.NewUnknownError(cause)
		e.Attempted = attempted
		return e
	}
}

func isMalformed(err error) bool {
	return errors.Is(err, assetmanifest.ErrEmptyManifest) ||
		errors.Is(err, assetmanifest.ErrMalformedVariant) ||
		errors.Is(err, assetmanifest.ErrMalformedJson)
}

func withAssetKey(err error, key string) error {
	var resErr *resolutionerrors.ResolutionError
	if !errors.As(err, &resErr) {
		return err
	}
	keyed := *resErr
	keyed.AssetKey = key
	return &keyed
}
