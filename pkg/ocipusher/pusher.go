// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ocipusher

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"strings"

	"daml.com/x/assetres/pkg/oci"
	"daml.com/x/assetres/pkg/remote"
	"github.com/Masterminds/semver/v3"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
)

type PushOperation struct {
	fs           *file.Store
	manifestDesc v1.Descriptor
	repoName     string
	tag          string
	files        []string
}

func (op *PushOperation) Tag() string {
	return op.tag
}

// Files lists the bundle's files, as layer titles
func (op *PushOperation) Files() []string {
	return op.files
}

func (op *PushOperation) Manifest() v1.Descriptor {
	return op.manifestDesc
}

func (op *PushOperation) Destination(registry string) string {
	return fmt.Sprintf("%s/%s:%s", registry, op.repoName, op.tag)
}

// Do pushes the bundle to the registry
//
// mostly copied from
// https://pkg.go.dev/oras.land/oras-go/v2#example-package-PushFilesToRemoteRepository
func (op *PushOperation) Do(ctx context.Context, client *remote.Remote) (*v1.Descriptor, error) {
	repo, err := client.Repo(op.repoName)
	if err != nil {
		return nil, err
	}
	return op.DoTo(ctx, repo)
}

// DoTo copies the bundle to dst, tagged
func (op *PushOperation) DoTo(ctx context.Context, dst oras.Target) (*v1.Descriptor, error) {
	d, err := oras.Copy(ctx, op.fs, op.tag, dst, op.tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (op *PushOperation) Close() error {
	return op.fs.Close()
}

type Opts struct {
	Name             string
	Version          *semver.Version
	Dir              string
	ExtraAnnotations map[string]string
}

// New packs every regular file below opts.Dir as a layer titled with its slash separated relative path
func New(ctx context.Context, opts Opts) (op *PushOperation, err error) {
	store, err := file.New(opts.Dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = store.Close()
		}
	}()

	var files []string
	var fileDescriptors []v1.Descriptor
	err = filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != opts.Dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(opts.Dir, path)
		if err != nil {
			return err
		}
		title := filepath.ToSlash(rel)

		fileDescriptor, err := store.Add(ctx, title, oci.BundleFileMediaType, path)
		if err != nil {
			return err
		}
		files = append(files, title)
		fileDescriptors = append(fileDescriptors, fileDescriptor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(fileDescriptors) == 0 {
		return nil, fmt.Errorf("bundle directory %q has no files", opts.Dir)
	}

	annotations := map[string]string{}
	maps.Copy(annotations, opts.ExtraAnnotations)
	oci.DescriptorAnnotations{Name: opts.Name, Version: opts.Version}.AppendToMap(annotations)

	packOpts := oras.PackManifestOptions{
		Layers:              fileDescriptors,
		ManifestAnnotations: annotations,
	}
	manifestDescriptor, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, oci.BundleArtifactType, packOpts)
	if err != nil {
		return nil, err
	}

	op = &PushOperation{
		repoName:     oci.BundleRepoName(opts.Name),
		tag:          opts.Version.String(),
		fs:           store,
		manifestDesc: manifestDescriptor,
		files:        files,
	}

	if err := store.Tag(ctx, manifestDescriptor, op.tag); err != nil {
		return nil, err
	}

	return op, nil
}
