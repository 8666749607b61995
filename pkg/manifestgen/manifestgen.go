// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package manifestgen builds asset manifests from a directory of assets.
//
// A file at <dir>/<N>x/<name> (e.g. assets/2.0x/heart.png) is a variant of the
// main asset <dir>/<name> at density N. Every other file is a main asset.
package manifestgen

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/assetmanifest"
	"daml.com/x/assetres/pkg/utils"
	"daml.com/x/assetres/pkg/variant"
	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

var densityDirRegex = regexp.MustCompile(`^(\d+(\.\d*)?)x$`)

// Index maps main asset keys to their variants
type Index struct {
	entries map[string][]variant.Variant
}

// Build walks fsys. Hidden files and the files named in skip (typically
// previously generated manifests) are left out.
func Build(fsys fs.FS, skip ...string) (*Index, error) {
	entries := map[string][]variant.Variant{}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || slices.Contains(skip, p) {
			return nil
		}

		key, density := mainAssetOf(p)
		entries[key] = append(entries[key], variant.Variant{Path: p, Density: density})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, vs := range entries {
		slices.SortFunc(vs, func(a, b variant.Variant) int {
			return cmp.Or(cmp.Compare(a.Density, b.Density), strings.Compare(a.Path, b.Path))
		})
	}
	return &Index{entries: entries}, nil
}

// mainAssetOf gives the key a file belongs to, and its density
func mainAssetOf(p string) (string, float64) {
	dir, name := path.Split(p)
	parent := path.Base(strings.TrimSuffix(dir, "/"))

	match := densityDirRegex.FindStringSubmatch(parent)
	if dir == "" || match == nil {
		return p, variant.BaselineDensity
	}
	d, err := strconv.ParseFloat(match[1], 64)
	if err != nil || d <= 0 {
		return p, variant.BaselineDensity
	}
	return path.Join(path.Dir(strings.TrimSuffix(dir, "/")), name), d
}

func (i *Index) Keys() []string {
	keys := lo.Keys(i.entries)
	slices.Sort(keys)
	return keys
}

func (i *Index) Variants(key string) []variant.Variant {
	return i.entries[key]
}

// EncodeModern encodes the index as CBOR, with map keys in canonical order
func (i *Index) EncodeModern() ([]byte, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	m := lo.MapValues(i.entries, func(vs []variant.Variant, _ string) []assetmanifest.ModernEntry {
		return lo.Map(vs, func(v variant.Variant, _ int) assetmanifest.ModernEntry {
			return assetmanifest.ModernEntry{Asset: v.Path, DPR: v.Density}
		})
	})
	return em.Marshal(m)
}

// EncodeLegacy encodes the index as JSON. Densities are implied by the variants' paths.
func (i *Index) EncodeLegacy() ([]byte, error) {
	m := lo.MapValues(i.entries, func(vs []variant.Variant, _ string) []string {
		return lo.Map(vs, func(v variant.Variant, _ int) string {
			return v.Path
		})
	})
	return json.MarshalIndent(m, "", "  ")
}

func (i *Index) Encode(encoding assetmanifest.Encoding) ([]byte, error) {
	switch encoding {
	case assetmanifest.Modern:
		return i.EncodeModern()
	case assetmanifest.Legacy:
		return i.EncodeLegacy()
	default:
		return nil, fmt.Errorf("unknown manifest encoding %q", encoding.String())
	}
}

// Write generates the manifests of dir in the given encodings, both when none are given.
// It returns the paths written.
func Write(ctx context.Context, config *assetconfig.Config, dir string, encodings ...assetmanifest.Encoding) ([]string, error) {
	if len(encodings) == 0 {
		encodings = assetmanifest.Encodings
	}
	names := map[assetmanifest.Encoding]string{
		assetmanifest.Modern: config.ModernManifestName,
		assetmanifest.Legacy: config.LegacyManifestName,
	}

	var written []string
	err := utils.WithLock(ctx, config.LockFilePath, func() error {
		index, err := Build(os.DirFS(dir), config.ModernManifestName, config.LegacyManifestName)
		if err != nil {
			return err
		}

		for _, encoding := range encodings {
			data, err := index.Encode(encoding)
			if err != nil {
				return err
			}
			p := filepath.Join(dir, filepath.FromSlash(names[encoding]))
			if err := utils.WriteFileAtomic(p, data, 0o644); err != nil {
				return err
			}
			slog.DebugContext(ctx, "wrote asset manifest", "path", p, "encoding", encoding, "keys", len(index.entries))
			written = append(written, p)
		}
		return nil
	})
	return written, err
}
