// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ocilister

import (
	"context"
	"errors"
	"slices"

	"daml.com/x/assetres/pkg/oci"
	"daml.com/x/assetres/pkg/remote"
	"github.com/Masterminds/semver/v3"
	"github.com/opencontainers/go-digest"
	"github.com/samber/lo"
	"oras.land/oras-go/v2/registry/remote/errcode"
)

// TaggedVersion is a published bundle version with every tag pointing at it
type TaggedVersion struct {
	Version *semver.Version `json:"version" yaml:"version"`
	Digest  digest.Digest   `json:"digest" yaml:"digest"`
	Tags    []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func ListTags(ctx context.Context, client *remote.Remote, repoName string) ([]string, bool, error) {
	var result []string

	repo, err := client.Repo(repoName)
	if err != nil {
		return nil, false, err
	}

	err = repo.Tags(ctx, "", func(tags []string) error {
		result = append(result, tags...)
		return nil
	})
	if isErrorCode(err, errcode.ErrorCodeNameUnknown) {
		// repo doesn't even exist...
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// ListBundleVersions lists the semver tagged versions of bundle name, in ascending order.
// Floaty tags (e.g. "latest") are attached to the version sharing their digest.
func ListBundleVersions(ctx context.Context, client *remote.Remote, name string) ([]TaggedVersion, error) {
	repoName := oci.BundleRepoName(name)
	repo, err := client.Repo(repoName)
	if err != nil {
		return nil, err
	}

	tags, found, err := ListTags(ctx, client, repoName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	digestToTags := map[digest.Digest][]string{}
	versions := map[digest.Digest][]*semver.Version{}
	for _, tag := range tags {
		desc, err := repo.Resolve(ctx, tag)
		if err != nil {
			return nil, err
		}
		if IsFloaty(tag) {
			digestToTags[desc.Digest] = append(digestToTags[desc.Digest], tag)
			continue
		}
		versions[desc.Digest] = append(versions[desc.Digest], semver.MustParse(tag))
	}

	var result []TaggedVersion
	for d, vs := range versions {
		for _, v := range vs {
			result = append(result, TaggedVersion{Version: v, Digest: d, Tags: lo.Uniq(digestToTags[d])})
		}
	}
	slices.SortFunc(result, func(a, b TaggedVersion) int {
		return a.Version.Compare(b.Version)
	})
	return result, nil
}

// Latest is the highest version, nil when there are none
func Latest(versions []TaggedVersion) *TaggedVersion {
	if len(versions) == 0 {
		return nil
	}
	latest := lo.MaxBy(versions, func(a, b TaggedVersion) bool {
		return a.Version.GreaterThan(b.Version)
	})
	return &latest
}

// IsFloaty reports whether tag isn't a full semver, e.g. "latest" or "1.2"
func IsFloaty(tag string) bool {
	_, err := semver.StrictNewVersion(tag)
	return err != nil
}

// isErrorCode returns true if err is an oras Error and its Code equals to code.
func isErrorCode(err error, code string) bool {
	var ec errcode.Error
	return errors.As(err, &ec) && ec.Code == code
}
