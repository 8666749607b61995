// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetmanifest

import (
	"fmt"
	"slices"
	"sync"

	"daml.com/x/assetres/pkg/variant"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// legacyManifest is the json manifest: asset key -> list of variant paths.
// Densities are inferred from the paths the first time a key is looked up.
type legacyManifest struct {
	paths map[string][]string

	// key -> []variant.Variant
	variants sync.Map
}

var _ Manifest = (*legacyManifest)(nil)

func parseLegacy(raw []byte) (*legacyManifest, error) {
	var paths map[string][]string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJson, err)
	}
	if paths == nil {
		return nil, fmt.Errorf("%w: expected an object of asset key to variant paths, got null", ErrMalformedJson)
	}
	return &legacyManifest{paths: paths}, nil
}

func (m *legacyManifest) Variants(key string) []variant.Variant {
	if v, ok := m.variants.Load(key); ok {
		return v.([]variant.Variant)
	}

	paths, ok := m.paths[key]
	if !ok {
		return nil
	}
	vs := lo.Map(paths, func(p string, _ int) variant.Variant {
		return variant.Variant{Path: p, Density: InferDensity(key, p)}
	})

	// a concurrent lookup may have raced us here; both computed the same list
	actual, _ := m.variants.LoadOrStore(key, vs)
	return actual.([]variant.Variant)
}

func (m *legacyManifest) Keys() []string {
	keys := lo.Keys(m.paths)
	slices.Sort(keys)
	return keys
}

func (m *legacyManifest) Encoding() Encoding {
	return Legacy
}
