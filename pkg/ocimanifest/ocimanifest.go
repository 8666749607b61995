// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ocimanifest

import (
	"context"
	"fmt"

	"daml.com/x/assetres/pkg/oci"
	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-json"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/samber/lo"
	"oras.land/oras-go/v2"
)

// Tag adds tags to the bundle manifest already tagged with version
func Tag(ctx context.Context, repo oras.Target, version *semver.Version, tags []string) error {
	_, err := oras.TagN(ctx, repo, version.String(), tags, oras.DefaultTagNOptions)
	return err
}

// Fetch fetches and decodes the bundle manifest reference points to
func Fetch(ctx context.Context, repo oras.ReadOnlyTarget, repoName, reference string) (*v1.Manifest, v1.Descriptor, error) {
	desc, bytes, err := oras.FetchBytes(ctx, repo, reference, oras.DefaultFetchBytesOptions)
	if err != nil {
		return nil, v1.Descriptor{}, err
	}

	if desc.MediaType != v1.MediaTypeImageManifest {
		return nil, v1.Descriptor{}, fmt.Errorf("reference \"%s:%s\" is %q and not an image manifest", repoName, reference, desc.MediaType)
	}

	manifest := v1.Manifest{}
	if err := json.Unmarshal(bytes, &manifest); err != nil {
		return nil, v1.Descriptor{}, err
	}
	if manifest.ArtifactType != oci.BundleArtifactType {
		return nil, v1.Descriptor{}, fmt.Errorf("reference \"%s:%s\" is a %q and not an asset bundle", repoName, reference, manifest.ArtifactType)
	}
	return &manifest, desc, nil
}

// FindLayer finds the layer holding the bundle file called title
func FindLayer(manifest *v1.Manifest, title string) (v1.Descriptor, bool) {
	return lo.Find(manifest.Layers, func(d v1.Descriptor) bool {
		return d.Annotations[v1.AnnotationTitle] == title
	})
}

// Files lists the titles of the bundle's layers
func Files(manifest *v1.Manifest) []string {
	return lo.FilterMap(manifest.Layers, func(d v1.Descriptor, _ int) (string, bool) {
		title, ok := d.Annotations[v1.AnnotationTitle]
		return title, ok
	})
}
