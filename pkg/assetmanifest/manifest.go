// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetmanifest

import (
	"errors"
	"fmt"

	"daml.com/x/assetres/pkg/variant"
)

var (
	ErrEmptyManifest    = errors.New("asset manifest is empty")
	ErrMalformedVariant = errors.New("malformed asset variant")
	ErrMalformedJson    = errors.New("malformed json asset manifest")
)

const (
	DefaultModernManifestName = "AssetManifest.bin"
	DefaultLegacyManifestName = "AssetManifest.json"
)

// Manifest maps logical asset keys to their available variants.
// Implementations are read-only once parsed and safe for concurrent use.
type Manifest interface {
	// Variants returns the variants listed for key, or nil if key isn't in the manifest
	Variants(key string) []variant.Variant
	Keys() []string
	Encoding() Encoding
}

// Parse decodes raw as a manifest of the given encoding
func Parse(raw []byte, encoding Encoding) (Manifest, error) {
	switch encoding {
	case Modern:
		return parseModern(raw)
	case Legacy:
		return parseLegacy(raw)
	default:
		return nil, fmt.Errorf("unknown manifest encoding %v", encoding)
	}
}
