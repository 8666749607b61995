// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"fmt"
	"os"

	"daml.com/x/assetres/pkg/oci"
	"daml.com/x/assetres/pkg/ocilister"
	"daml.com/x/assetres/pkg/remote"
	"daml.com/x/assetres/pkg/utils"
	"github.com/Masterminds/semver/v3"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/samber/lo"
	"oras.land/oras-go/v2"
)

// Promote re-publishes bundle name:version from one registry to another,
// along with the floaty tags pointing at it in the source.
// Blobs go through the oci-layout cache at blobCache, a temp dir when empty.
func Promote(ctx context.Context, src, dst *remote.Remote, name string, version *semver.Version, blobCache string, printer utils.Printer) (*v1.Descriptor, error) {
	if blobCache == "" {
		tmp, err := os.MkdirTemp("", "assetres-promote-")
		if err != nil {
			return nil, err
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		blobCache = tmp
	}
	if err := utils.EnsureDirs(blobCache); err != nil {
		return nil, err
	}

	published, err := ocilister.ListBundleVersions(ctx, src, name)
	if err != nil {
		return nil, err
	}
	tagged, ok := lo.Find(published, func(v ocilister.TaggedVersion) bool {
		return v.Version.Equal(version)
	})
	if !ok {
		return nil, fmt.Errorf("bundle %s@%s isn't published in %s", name, version, src.Registry)
	}

	repoName := oci.BundleRepoName(name)
	source, err := src.CachedRepo(repoName, blobCache)
	if err != nil {
		return nil, err
	}
	dest, err := dst.Repo(repoName)
	if err != nil {
		return nil, err
	}

	printer.Printf("promoting %s:%s...\n", repoName, version.String())
	desc, err := oras.Copy(ctx, source, tagged.Digest.String(), dest, version.String(), oras.DefaultCopyOptions)
	if err != nil {
		return nil, err
	}

	for _, tag := range tagged.Tags {
		printer.Printf("promoting %s:%s...\n", repoName, tag)
		if err := dest.Tag(ctx, desc, tag); err != nil {
			return nil, err
		}
	}
	return &desc, nil
}
