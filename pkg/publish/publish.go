// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"daml.com/x/assetres/pkg/assetmanifest"
	"daml.com/x/assetres/pkg/oci"
	"daml.com/x/assetres/pkg/ocilister"
	"daml.com/x/assetres/pkg/ocimanifest"
	"daml.com/x/assetres/pkg/ocipusher"
	"daml.com/x/assetres/pkg/remote"
	"daml.com/x/assetres/pkg/utils"
	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/goccy/go-json"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/samber/lo"
	"oras.land/oras-go/v2/errdef"
)

var ErrNoManifest = errors.New("bundle has no asset manifest")

type Config struct {
	Name                   string
	Dir                    string
	Version                *semver.Version
	DryRun, IncludeGitInfo bool
	Annotations            map[string]string
	ExtraTags              []string

	ModernManifestName string
	LegacyManifestName string
}

type Publisher struct {
	config  *Config
	printer utils.Printer
}

func New(config *Config, printer utils.Printer) *Publisher {
	return &Publisher{config: config, printer: printer}
}

// Publish validates the bundle directory and pushes it. A nil client is only allowed for dry runs.
func (p *Publisher) Publish(ctx context.Context, client *remote.Remote) (*v1.Descriptor, error) {
	pushOp, err := p.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pushOp.Close() }()

	if p.config.DryRun {
		p.printer.Println("Skipping push due to --dry-run")
		return nil, nil
	}

	if client == nil {
		return nil, fmt.Errorf("a registry must be provided when not in dry-run mode")
	}

	// skip pushing if the version already exists
	existingVersions, err := ocilister.ListBundleVersions(ctx, client, p.config.Name)
	if err != nil {
		return nil, err
	}
	alreadyExists := lo.ContainsBy(existingVersions, func(v ocilister.TaggedVersion) bool {
		return v.Version.Equal(p.config.Version)
	})

	var descriptor *v1.Descriptor
	if alreadyExists {
		p.printer.Println("skipped pushing because the bundle version already exists in remote")
	} else {
		descriptor, err = p.push(ctx, client, pushOp)
		if err != nil {
			return nil, err
		}
	}

	if len(p.config.ExtraTags) > 0 {
		p.printer.Println("pushing extra tags...")
		repo, err := client.Repo(oci.BundleRepoName(p.config.Name))
		if err != nil {
			return nil, err
		}
		if err := ocimanifest.Tag(ctx, repo, p.config.Version, p.config.ExtraTags); err != nil {
			return nil, err
		}
	}

	return descriptor, nil
}

func (p *Publisher) prepare(ctx context.Context) (*ocipusher.PushOperation, error) {
	dir := p.config.Dir

	p.printer.Printf("📦 Validating asset manifests of %q...\n", dir)
	if err := p.validate(); err != nil {
		return nil, err
	}
	p.printer.Printf("Asset manifests are valid ✅\n")
	p.printer.Println()

	p.printer.Println("Content:")
	if err := p.displayContent(dir); err != nil {
		return nil, err
	}
	p.printer.Println()

	annotations := maps.Clone(p.config.Annotations)
	if annotations == nil {
		annotations = map[string]string{}
	}
	if p.config.IncludeGitInfo {
		gitAnnotations, err := collectGitAnnotations(dir)
		if err != nil {
			return nil, err
		}
		maps.Copy(annotations, gitAnnotations)
	}

	pushOp, err := ocipusher.New(ctx, ocipusher.Opts{
		Name:             p.config.Name,
		Version:          p.config.Version,
		Dir:              dir,
		ExtraAnnotations: annotations,
	})
	if err != nil {
		if errors.Is(err, errdef.ErrSizeExceedsLimit) {
			p.printer.Println(`Failed to construct OCI manifest due to size limit.
Consider splitting the bundle`)
		}
		return nil, err
	}

	return pushOp, nil
}

func (p *Publisher) push(ctx context.Context, client *remote.Remote, pushOp *ocipusher.PushOperation) (*v1.Descriptor, error) {
	coloredDest := color.GreenString(pushOp.Destination(client.Registry))

	p.printer.Printf("Pushing %q...\n", coloredDest)
	descriptor, err := pushOp.Do(ctx, client)
	if err != nil {
		return nil, err
	}
	descriptorJson, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return nil, err
	}
	p.printer.Printf("\n%s\n", string(descriptorJson))
	p.printer.Println("successfully published " + coloredDest)
	return descriptor, nil
}

// validate checks that the bundle carries at least one parsable manifest,
// and that every variant the manifests list is part of the bundle
func (p *Publisher) validate() error {
	manifests := map[assetmanifest.Encoding]string{
		assetmanifest.Modern: p.config.ModernManifestName,
		assetmanifest.Legacy: p.config.LegacyManifestName,
	}

	found := 0
	for _, encoding := range assetmanifest.Encodings {
		name := manifests[encoding]
		raw, err := os.ReadFile(filepath.Join(p.config.Dir, filepath.FromSlash(name)))
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return err
		}
		found++

		m, err := assetmanifest.Parse(raw, encoding)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		for _, key := range m.Keys() {
			for _, v := range m.Variants(key) {
				if _, err := os.Stat(filepath.Join(p.config.Dir, filepath.FromSlash(v.Path))); err != nil {
					return fmt.Errorf("%s lists %q for %q, which isn't in the bundle: %w", name, v.Path, key, err)
				}
			}
		}
	}

	if found == 0 {
		return fmt.Errorf("%w: expected %s or %s in %q", ErrNoManifest, p.config.ModernManifestName, p.config.LegacyManifestName, p.config.Dir)
	}
	return nil
}

// collectGitAnnotations describes the commit checked out in the repository containing dir
func collectGitAnnotations(dir string) (map[string]string, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	head, err := r.Head()
	if err != nil {
		return nil, err
	}

	result := map[string]string{
		"git.commit": head.Hash().String(),
	}

	tags, err := r.Tags()
	if err != nil {
		return nil, err
	}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		// annotated tags point at a tag object rather than the commit
		if tag, err := r.TagObject(target); err == nil {
			target = tag.Target
		} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
			return err
		}

		if target == head.Hash() {
			result["git.tag"] = ref.Name().Short()
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (p *Publisher) displayContent(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var ftype string
		switch {
		case d.Type()&os.ModeSymlink == os.ModeSymlink:
			ftype = "symlink"
			if err := checkSymlinkWithinRoot(dir, path); err != nil {
				return err
			}
		case d.IsDir():
			ftype = "dir"
		default:
			ftype = "file"
		}
		p.printer.Printf("%s %s %s\n",
			color.CyanString(path),
			color.YellowString(ftype),
			color.MagentaString("%d", info.Size()),
		)

		return nil
	})
}

func checkSymlinkWithinRoot(dir, symlink string) error {
	resolved, err := filepath.EvalSymlinks(symlink)
	if err != nil {
		return fmt.Errorf("failed to resolve symlink %s: %w", symlink, err)
	}

	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return err
	}
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	if !withinRoot(resolvedAbs, root) {
		return fmt.Errorf("symlink points outside the root: %s -> %s", symlink, resolvedAbs)
	}

	return nil
}

func withinRoot(target, root string) bool {
	if target == root {
		return true
	}
	return strings.HasPrefix(target, root+string(os.PathSeparator))
}
