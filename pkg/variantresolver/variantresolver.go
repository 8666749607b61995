// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package variantresolver

import (
	"daml.com/x/assetres/pkg/variant"
)

// LowDensityThreshold is the target density below which the higher of two
// neighbouring variants always wins, since upscaling artifacts show most on
// low-density screens.
const LowDensityThreshold = 2.0

// Choose picks the variant of key that best matches target.
//
// With no target or no candidates it returns the baseline variant of key.
// Otherwise an exact density match wins. A target outside the available range
// takes the nearest end. A target between two densities takes the higher one
// if it's below LowDensityThreshold or past their midpoint, and the lower one
// otherwise.
func Choose(key string, candidates []variant.Variant, target *float64) variant.Variant {
	if target == nil || len(candidates) == 0 {
		return variant.Baseline(key)
	}
	return BuildIndex(key, candidates).Choose(*target)
}

// Choose runs the nearest-match selection over the index
func (idx DensityIndex) Choose(target float64) variant.Variant {
	if v, ok := idx.Lookup(target); ok {
		return v
	}

	lower, hasLower := idx.Lower(target)
	upper, hasUpper := idx.Upper(target)
	switch {
	case !hasLower:
		return upper.Variant
	case !hasUpper:
		return lower.Variant
	case target < LowDensityThreshold || target > (lower.Density+upper.Density)/2:
		return upper.Variant
	default:
		return lower.Variant
	}
}
