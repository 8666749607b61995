// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ocistore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/assetstore"
	"daml.com/x/assetres/pkg/future"
	"daml.com/x/assetres/pkg/oci"
	"daml.com/x/assetres/pkg/ocimanifest"
	"daml.com/x/assetres/pkg/remote"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"golang.org/x/sync/singleflight"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
)

// Store serves the files of an asset bundle published to an OCI registry.
// Fetches wait on the network and so always complete asynchronously.
type Store struct {
	name      string
	target    oras.ReadOnlyTarget
	repoName  string
	reference string
	timeout   time.Duration

	sf       singleflight.Group
	manifest atomic.Pointer[v1.Manifest]
}

var _ assetstore.Store = (*Store)(nil)

// New serves bundle repoName:reference from target. A non-positive timeout means fetches only end with their context.
func New(target oras.ReadOnlyTarget, repoName, reference string, timeout time.Duration) *Store {
	return &Store{
		name:      fmt.Sprintf("oci://%s:%s", repoName, reference),
		target:    target,
		repoName:  repoName,
		reference: reference,
		timeout:   timeout,
	}
}

// NewFromConfig serves bundle name:tag from the configured registry, through the oci-layout cache
func NewFromConfig(config *assetconfig.Config, r *remote.Remote, name, tag string) (*Store, error) {
	repoName := oci.BundleRepoName(name)
	target, err := r.CachedRepo(repoName, config.OciLayoutCache)
	if err != nil {
		return nil, err
	}
	s := New(target, repoName, tag, config.FetchTimeout)
	s.name = fmt.Sprintf("oci://%s/%s:%s", r.Registry, repoName, tag)
	return s, nil
}

func (s *Store) Name() string {
	return s.name
}

func (s *Store) Fetch(ctx context.Context, name string) future.Result[[]byte] {
	return future.Go(func() ([]byte, error) {
		// shared with concurrent fetches, so only the store's timeout bounds it.
		// Each caller stops waiting through Await with its own context.
		shared := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, s.timeout)
			defer cancel()
		}

		manifest, err := s.bundleManifest(shared)
		if err != nil {
			return nil, err
		}

		layer, ok := ocimanifest.FindLayer(manifest, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %s", assetstore.ErrNotFound, name, s.name)
		}

		slog.DebugContext(ctx, "fetching bundle file", "store", s.name, "name", name, "digest", layer.Digest)
		data, err, _ := s.sf.Do(layer.Digest.String(), func() (any, error) {
			return content.FetchAll(shared, s.target, layer)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %q from %s: %w", name, s.name, err)
		}
		return slices.Clone(data.([]byte)), nil
	})
}

// bundleManifest resolves the bundle reference once. Failures are retried on the next fetch.
func (s *Store) bundleManifest(ctx context.Context) (*v1.Manifest, error) {
	if m := s.manifest.Load(); m != nil {
		return m, nil
	}

	m, err, _ := s.sf.Do("manifest", func() (any, error) {
		manifest, _, err := ocimanifest.Fetch(ctx, s.target, s.repoName, s.reference)
		if errors.Is(err, errdef.ErrNotFound) {
			return nil, fmt.Errorf("%w: bundle %s: %w", assetstore.ErrNotFound, s.name, err)
		} else if err != nil {
			return nil, err
		}
		s.manifest.Store(manifest)
		return manifest, nil
	})
	if err != nil {
		return nil, err
	}
	return m.(*v1.Manifest), nil
}
