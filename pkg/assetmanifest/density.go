// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetmanifest

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"daml.com/x/assetres/pkg/variant"
)

var densitySuffixRegex = regexp.MustCompile(`/?(\d+(\.\d*)?)x$`)

// InferDensity derives the density of a legacy manifest variant from its path.
//
// The main asset listed as its own variant is 1.0. Any other variant is expected
// to sit in a directory named after its density, e.g. assets/icons/2.0x/heart.png.
// Only the immediate parent directory is inspected; anything that doesn't
// conform defaults to 1.0.
func InferDensity(mainAssetKey, variantPath string) float64 {
	if variantPath == mainAssetKey {
		return variant.BaselineDensity
	}

	dir, ok := parentDirName(variantPath)
	if !ok {
		return variant.BaselineDensity
	}

	match := densitySuffixRegex.FindStringSubmatch(dir)
	if match == nil {
		return variant.BaselineDensity
	}
	d, err := strconv.ParseFloat(match[1], 64)
	if err != nil || d <= 0 {
		return variant.BaselineDensity
	}
	return d
}

func parentDirName(p string) (string, bool) {
	u, err := url.Parse(p)
	if err != nil {
		return "", false
	}

	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", false
	}
	return segments[len(segments)-2], true
}
