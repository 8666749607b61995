// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package variantresolver

import (
	"cmp"
	"slices"

	"daml.com/x/assetres/pkg/variant"
	"github.com/samber/lo"
)

type Entry struct {
	Density float64
	Variant variant.Variant
}

// DensityIndex holds one variant per distinct density, sorted by ascending density.
// It always contains an entry at the baseline density.
type DensityIndex []Entry

// BuildIndex indexes candidates by density. A later candidate replaces an earlier
// one of the same density. The baseline variant of key is added unless a
// candidate already sits at the baseline density.
func BuildIndex(key string, candidates []variant.Variant) DensityIndex {
	byDensity := map[float64]variant.Variant{}
	for _, c := range candidates {
		byDensity[c.Density] = c
	}
	if _, ok := byDensity[variant.BaselineDensity]; !ok {
		byDensity[variant.BaselineDensity] = variant.Baseline(key)
	}

	idx := DensityIndex(lo.MapToSlice(byDensity, func(d float64, v variant.Variant) Entry {
		return Entry{Density: d, Variant: v}
	}))
	slices.SortFunc(idx, func(a, b Entry) int {
		return cmp.Compare(a.Density, b.Density)
	})
	return idx
}

// Lookup returns the variant at exactly density
func (idx DensityIndex) Lookup(density float64) (variant.Variant, bool) {
	i, found := idx.search(density)
	if !found {
		return variant.Variant{}, false
	}
	return idx[i].Variant, true
}

// Lower returns the entry with the greatest density strictly below density
func (idx DensityIndex) Lower(density float64) (Entry, bool) {
	i, _ := idx.search(density)
	if i == 0 {
		return Entry{}, false
	}
	return idx[i-1], true
}

// Upper returns the entry with the smallest density strictly above density
func (idx DensityIndex) Upper(density float64) (Entry, bool) {
	i, found := idx.search(density)
	if found {
		i++
	}
	if i >= len(idx) {
		return Entry{}, false
	}
	return idx[i], true
}

func (idx DensityIndex) Densities() []float64 {
	return lo.Map(idx, func(e Entry, _ int) float64 {
		return e.Density
	})
}

func (idx DensityIndex) search(density float64) (int, bool) {
	return slices.BinarySearchFunc(idx, density, func(e Entry, d float64) int {
		return cmp.Compare(e.Density, d)
	})
}
