// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"daml.com/x/assetres/pkg/future"
)

var ErrNotFound = errors.New("not found in asset store")

// Store is a named collection of files, e.g. a bundle of assets with its manifests
type Store interface {
	// Name identifies the store, e.g. for telling apart resolved assets of different bundles
	Name() string
	// Fetch returns the bytes of the named file. Stores that have the bytes at hand
	// return a ready result; stores that wait on I/O return a pending one.
	Fetch(ctx context.Context, name string) future.Result[[]byte]
}

// FSStore serves files from an fs.FS. Fetches complete synchronously.
type FSStore struct {
	name string
	fsys fs.FS
}

var _ Store = (*FSStore)(nil)

func NewFS(name string, fsys fs.FS) *FSStore {
	return &FSStore{name: name, fsys: fsys}
}

// NewDir is an FSStore over a local directory
func NewDir(dir string) (*FSStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("expected %s to be a directory", abs)
	}
	return NewFS("file://"+filepath.ToSlash(abs), os.DirFS(abs)), nil
}

func (s *FSStore) Name() string {
	return s.name
}

func (s *FSStore) Fetch(ctx context.Context, name string) future.Result[[]byte] {
	if err := ctx.Err(); err != nil {
		return future.Failed[[]byte](err)
	}

	data, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return future.Failed[[]byte](fmt.Errorf("%w: %q in %s: %w", ErrNotFound, name, s.name, err))
	}
	return future.Of(data, err)
}

// MemoryStore holds files in memory. Fetches complete synchronously.
type MemoryStore struct {
	name  string
	mu    sync.RWMutex
	files map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemory(name string, files map[string][]byte) *MemoryStore {
	m := &MemoryStore{name: name, files: map[string][]byte{}}
	maps.Copy(m.files, files)
	return m
}

func (m *MemoryStore) Name() string {
	return m.name
}

func (m *MemoryStore) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
}

func (m *MemoryStore) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
}

func (m *MemoryStore) Fetch(ctx context.Context, name string) future.Result[[]byte] {
	if err := ctx.Err(); err != nil {
		return future.Failed[[]byte](err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return future.Failed[[]byte](fmt.Errorf("%w: %q in %s", ErrNotFound, name, m.name))
	}
	return future.Ready(slices.Clone(data))
}
