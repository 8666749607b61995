// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvVars(t *testing.T) {
	t.Setenv("ASSETRES_TEST_BOOL", "true")
	t.Setenv("ASSETRES_TEST_FLOAT", "2.5")
	t.Setenv("ASSETRES_TEST_BAD", "nope")

	b, ok, err := BoolEnvVar("ASSETRES_TEST_BOOL")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b)

	f, ok, err := FloatEnvVar("ASSETRES_TEST_FLOAT")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	_, ok, err = FloatEnvVar("ASSETRES_TEST_UNSET")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = BoolEnvVar("ASSETRES_TEST_BAD")
	assert.Error(t, err)
	_, _, err = FloatEnvVar("ASSETRES_TEST_BAD")
	assert.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "file.json")
	require.NoError(t, WriteFileAtomic(p, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(p, []byte("two"), 0o644))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestWithLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".lock")
	ctx := context.Background()

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(ctx, lockPath, func() error {
				mu.Lock()
				active++
				maxActive = max(maxActive, active)
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, WithLock(cancelled, lockPath, func() error { return nil }), context.Canceled)
}
