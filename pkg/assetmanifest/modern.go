// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetmanifest

import (
	"fmt"
	"slices"
	"sync"

	"daml.com/x/assetres/pkg/variant"
	"github.com/fxamacker/cbor/v2"
	"github.com/samber/lo"
)

const (
	assetField   = "asset"
	densityField = "dpr"
)

// ModernEntry is the wire shape of a single variant in the binary manifest
type ModernEntry struct {
	Asset string  `cbor:"asset"`
	DPR   float64 `cbor:"dpr"`
}

type modernManifest struct {
	entries map[string][]ModernEntry

	// key -> []variant.Variant, filled on first lookup
	variants sync.Map
}

var _ Manifest = (*modernManifest)(nil)

func parseModern(raw []byte) (*modernManifest, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyManifest
	}

	var top map[string]cbor.RawMessage
	if err := cbor.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: top-level value must be a map of asset key to variants: %w", ErrMalformedVariant, err)
	}
	if top == nil {
		return nil, ErrEmptyManifest
	}

	entries := make(map[string][]ModernEntry, len(top))
	for key, rawVariants := range top {
		var list []map[string]any
		if err := cbor.Unmarshal(rawVariants, &list); err != nil {
			return nil, fmt.Errorf("%w: variants of %q must be a list of maps: %w", ErrMalformedVariant, key, err)
		}

		es := make([]ModernEntry, 0, len(list))
		for i, m := range list {
			e, err := decodeModernEntry(m)
			if err != nil {
				return nil, fmt.Errorf("%w: variant %d of %q: %s", ErrMalformedVariant, i, key, err.Error())
			}
			es = append(es, e)
		}
		entries[key] = es
	}

	return &modernManifest{entries: entries}, nil
}

func decodeModernEntry(m map[string]any) (ModernEntry, error) {
	rawAsset, ok := m[assetField]
	if !ok {
		return ModernEntry{}, fmt.Errorf("missing required field '%s'", assetField)
	}
	asset, ok := rawAsset.(string)
	if !ok {
		return ModernEntry{}, fmt.Errorf("field '%s' must be a string, got %T", assetField, rawAsset)
	}

	rawDpr, ok := m[densityField]
	if !ok {
		return ModernEntry{}, fmt.Errorf("missing required field '%s'", densityField)
	}
	var dpr float64
	switch d := rawDpr.(type) {
	case float64:
		dpr = d
	case float32:
		dpr = float64(d)
	case uint64:
		dpr = float64(d)
	case int64:
		dpr = float64(d)
	default:
		return ModernEntry{}, fmt.Errorf("field '%s' must be a number, got %T", densityField, rawDpr)
	}
	if !variant.IsValidDensity(dpr) {
		return ModernEntry{}, fmt.Errorf("field '%s' must be positive and finite, got %v", densityField, dpr)
	}

	return ModernEntry{Asset: asset, DPR: dpr}, nil
}

func (m *modernManifest) Variants(key string) []variant.Variant {
	if v, ok := m.variants.Load(key); ok {
		return v.([]variant.Variant)
	}

	entries, ok := m.entries[key]
	if !ok {
		return nil
	}
	vs := lo.Map(entries, func(e ModernEntry, _ int) variant.Variant {
		return variant.Variant{Path: e.Asset, Density: e.DPR}
	})

	actual, _ := m.variants.LoadOrStore(key, vs)
	return actual.([]variant.Variant)
}

func (m *modernManifest) Keys() []string {
	keys := lo.Keys(m.entries)
	slices.Sort(keys)
	return keys
}

func (m *modernManifest) Encoding() Encoding {
	return Modern
}
