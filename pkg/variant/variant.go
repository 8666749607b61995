// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package variant

import (
	"fmt"
	"math"
)

// BaselineDensity is the density of the main asset, i.e. the asset identified by its own key
const BaselineDensity = 1.0

// IsValidDensity reports whether d can be a variant or target density: positive and finite
func IsValidDensity(d float64) bool {
	return d > 0 && !math.IsInf(d, 1)
}

// Variant is one candidate rendering of a logical asset
type Variant struct {
	Path    string  `json:"path" yaml:"path"`
	Density float64 `json:"density" yaml:"density"`
}

func (v Variant) String() string {
	return fmt.Sprintf("%s@%gx", v.Path, v.Density)
}

func (v Variant) IsBaseline() bool {
	return v.Density == BaselineDensity
}

// Baseline returns the implicit 1.0 variant of key
func Baseline(key string) Variant {
	return Variant{Path: key, Density: BaselineDensity}
}

// ResolutionKey identifies a resolved asset instance.
// Resolutions yielding equal keys are interchangeable.
type ResolutionKey struct {
	Store   string  `json:"store" yaml:"store"`
	Path    string  `json:"path" yaml:"path"`
	Density float64 `json:"density" yaml:"density"`
}

func NewResolutionKey(store string, v Variant) ResolutionKey {
	return ResolutionKey{Store: store, Path: v.Path, Density: v.Density}
}

func (k ResolutionKey) String() string {
	return fmt.Sprintf("%s:%s@%gx", k.Store, k.Path, k.Density)
}
