// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"bytes"
	"testing"

	"daml.com/x/assetres/pkg/ocilister"
	"daml.com/x/assetres/pkg/testutil"
	"daml.com/x/assetres/pkg/utils"
	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromote(t *testing.T) {
	ctx := testutil.Context(t)
	src, _ := testutil.StartRegistry(t)
	dst, _ := testutil.StartRegistry(t)

	dir := testutil.WriteHeartBundle(t)
	pushed := testutil.PushBundle(t, ctx, src, "icons", "1.0.0", dir, "stable")
	testutil.PushBundle(t, ctx, src, "icons", "1.1.0", dir)

	var out bytes.Buffer
	desc, err := Promote(ctx, src, dst, "icons", semver.MustParse("1.0.0"), t.TempDir(), utils.WriterPrinter{W: &out})
	require.NoError(t, err)
	assert.Equal(t, pushed.Digest, desc.Digest)
	assert.Contains(t, out.String(), "assets/icons:stable")

	promoted, err := ocilister.ListBundleVersions(ctx, dst, "icons")
	require.NoError(t, err)
	require.Len(t, promoted, 1)
	assert.Equal(t, "1.0.0", promoted[0].Version.String())
	assert.Equal(t, []string{"stable"}, promoted[0].Tags)

	t.Run("unpublished version", func(t *testing.T) {
		_, err := Promote(ctx, src, dst, "icons", semver.MustParse("2.0.0"), "", utils.WriterPrinter{W: &out})
		assert.ErrorContains(t, err, "isn't published")
	})
}
