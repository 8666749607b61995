// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package manifestgen

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"daml.com/x/assetres/pkg/assetmanifest"
	"daml.com/x/assetres/pkg/testutil"
	"daml.com/x/assetres/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assets = fstest.MapFS{
	"assets/heart.png":        {Data: []byte("1x")},
	"assets/2.0x/heart.png":   {Data: []byte("2x")},
	"assets/4.0x/heart.png":   {Data: []byte("4x")},
	"assets/1.5x/heart.png":   {Data: []byte("1.5x")},
	"assets/3x/star.png":      {Data: []byte("3x")},
	"assets/0x/odd.png":       {Data: []byte("0x")},
	"logo.svg":                {Data: []byte("svg")},
	"assets/.hidden/x.png":    {Data: []byte("hidden")},
	".DS_Store":               {Data: []byte("junk")},
	"AssetManifest.json":      {Data: []byte("{}")},
	"fonts/2.0x/NotoSans.ttf": {Data: []byte("font")},
}

func TestBuild(t *testing.T) {
	index, err := Build(assets, "AssetManifest.json")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"assets/0x/odd.png",
		"assets/heart.png",
		"assets/star.png",
		"fonts/NotoSans.ttf",
		"logo.svg",
	}, index.Keys())

	assert.Equal(t, []variant.Variant{
		{Path: "assets/heart.png", Density: 1},
		{Path: "assets/1.5x/heart.png", Density: 1.5},
		{Path: "assets/2.0x/heart.png", Density: 2},
		{Path: "assets/4.0x/heart.png", Density: 4},
	}, index.Variants("assets/heart.png"))

	// no main asset, still a key
	assert.Equal(t, []variant.Variant{{Path: "assets/3x/star.png", Density: 3}}, index.Variants("assets/star.png"))
	assert.Equal(t, []variant.Variant{{Path: "logo.svg", Density: 1}}, index.Variants("logo.svg"))
	assert.Nil(t, index.Variants("missing.png"))
}

func TestEncodingsParseBack(t *testing.T) {
	index, err := Build(assets)
	require.NoError(t, err)

	for _, encoding := range assetmanifest.Encodings {
		t.Run(encoding.String(), func(t *testing.T) {
			raw, err := index.Encode(encoding)
			require.NoError(t, err)

			m, err := assetmanifest.Parse(raw, encoding)
			require.NoError(t, err)
			assert.Equal(t, encoding, m.Encoding())
			assert.Equal(t, index.Keys(), m.Keys())
			for _, key := range index.Keys() {
				assert.Equal(t, index.Variants(key), m.Variants(key), key)
			}
		})
	}

	_, err = index.Encode(assetmanifest.Encoding(42))
	assert.Error(t, err)
}

func TestDeterministicModernEncoding(t *testing.T) {
	index, err := Build(assets)
	require.NoError(t, err)

	first, err := index.EncodeModern()
	require.NoError(t, err)
	for range 5 {
		again, err := index.EncodeModern()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestWrite(t *testing.T) {
	config := testutil.Config(t)
	dir := testutil.WriteHeartBundle(t)

	written, err := Write(testutil.Context(t), config, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, assetmanifest.DefaultModernManifestName),
		filepath.Join(dir, assetmanifest.DefaultLegacyManifestName),
	}, written)

	raw, err := os.ReadFile(filepath.Join(dir, assetmanifest.DefaultModernManifestName))
	require.NoError(t, err)
	m, err := assetmanifest.Parse(raw, assetmanifest.Modern)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/heart.png"}, m.Keys(), "manifests don't list themselves")
	assert.Len(t, m.Variants("assets/heart.png"), 3)

	// regenerating only the legacy manifest leaves the modern one alone
	written, err = Write(testutil.Context(t), config, dir, assetmanifest.Legacy)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, assetmanifest.DefaultLegacyManifestName)}, written)
}
