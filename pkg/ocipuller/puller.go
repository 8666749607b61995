// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ocipuller

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/oci"
	"daml.com/x/assetres/pkg/ocicache"
	"daml.com/x/assetres/pkg/ocimanifest"
	"daml.com/x/assetres/pkg/remote"
	"daml.com/x/assetres/pkg/utils"
	"github.com/Masterminds/semver/v3"
	"github.com/opencontainers/go-digest"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	ocilayout "oras.land/oras-go/v2/content/oci"
)

// Pulled is a bundle copied into the local bundles cache
type Pulled struct {
	Name    string          `json:"name" yaml:"name"`
	Tag     string          `json:"tag" yaml:"tag"`
	Version *semver.Version `json:"version" yaml:"version"`
	Digest  digest.Digest   `json:"digest" yaml:"digest"`
	Dir     string          `json:"dir" yaml:"dir"`
	Files   []string        `json:"files" yaml:"files"`
}

// Source gives the target holding a bundle repository
type Source func(repoName string) (oras.ReadOnlyTarget, error)

type Puller struct {
	config *assetconfig.Config
	source Source

	mu      sync.Mutex
	targets map[string]oras.ReadOnlyTarget
}

func New(config *assetconfig.Config, source Source) *Puller {
	return &Puller{config: config, source: source, targets: map[string]oras.ReadOnlyTarget{}}
}

// target opens each repository once, so its cache is shared by concurrent pulls
func (p *Puller) target(repoName string) (oras.ReadOnlyTarget, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.targets[repoName]; ok {
		return t, nil
	}
	t, err := p.source(repoName)
	if err != nil {
		return nil, err
	}
	p.targets[repoName] = t
	return t, nil
}

// NewRemote pulls from the registry, through the oci-layout cache
func NewRemote(config *assetconfig.Config, r *remote.Remote) *Puller {
	return New(config, func(repoName string) (oras.ReadOnlyTarget, error) {
		return r.CachedRepo(repoName, config.OciLayoutCache)
	})
}

func NewFromRemoteConfig(config *assetconfig.Config) (*Puller, error) {
	r, err := remote.NewFromConfig(config)
	if err != nil {
		return nil, err
	}
	return NewRemote(config, r), nil
}

// NewLocal pulls from oci-layout directories laid out as <localRegistryPath>/<repo>
func NewLocal(config *assetconfig.Config, localRegistryPath string) *Puller {
	return New(config, func(repoName string) (oras.ReadOnlyTarget, error) {
		path := filepath.Join(localRegistryPath, filepath.FromSlash(repoName))
		exists, err := utils.DirExists(path)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("no local oci-layout for %q at %q", repoName, path)
		}
		target, err := ocilayout.New(path)
		if err != nil {
			return nil, err
		}
		return ocicache.CachedTarget(target, config.OciLayoutCache)
	})
}

// Dir is where the bundle with manifest digest d is (or would be) pulled to
func (p *Puller) Dir(d digest.Digest) string {
	return filepath.Join(p.config.BundlesPath, d.Encoded())
}

// IsPulled reports whether the bundle with manifest digest d is in the bundles cache
func (p *Puller) IsPulled(d digest.Digest) bool {
	exists, err := utils.DirExists(p.Dir(d))
	return err == nil && exists
}

// Pull copies the files of bundle name:tag into the bundles cache, unless already there
func (p *Puller) Pull(ctx context.Context, name, tag string) (*Pulled, error) {
	if err := p.config.EnsureDirs(); err != nil {
		return nil, err
	}

	repoName := oci.BundleRepoName(name)
	src, err := p.target(repoName)
	if err != nil {
		return nil, err
	}

	manifest, desc, err := ocimanifest.Fetch(ctx, src, repoName, tag)
	if err != nil {
		return nil, err
	}
	version, err := oci.VersionFromDescriptorAnnotations(manifest.Annotations)
	if err != nil {
		return nil, err
	}

	pulled := &Pulled{
		Name:    name,
		Tag:     tag,
		Version: version,
		Digest:  desc.Digest,
		Dir:     p.Dir(desc.Digest),
		Files:   ocimanifest.Files(manifest),
	}

	err = utils.WithLock(ctx, p.config.LockFilePath, func() error {
		if p.IsPulled(desc.Digest) {
			slog.DebugContext(ctx, "bundle already pulled", "name", name, "tag", tag, "dir", pulled.Dir)
			return nil
		}

		tmp, err := os.MkdirTemp(p.config.BundlesPath, ".pull-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		dest, err := file.New(tmp)
		if err != nil {
			return err
		}
		// errors out if a layer would overwrite another
		dest.DisableOverwrite = true

		slog.DebugContext(ctx, "pulling bundle", "name", name, "tag", tag, "digest", desc.Digest)
		if err := oras.CopyGraph(ctx, src, dest, desc, oras.DefaultCopyGraphOptions); err != nil {
			_ = dest.Close()
			return err
		}
		if err := dest.Close(); err != nil {
			return err
		}
		return os.Rename(tmp, pulled.Dir)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pull %s:%s: %w", repoName, tag, err)
	}
	return pulled, nil
}
