// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package source holds the flags selecting which asset store a command reads from
package source

import (
	"fmt"
	"strings"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/assetstore"
	"daml.com/x/assetres/pkg/assetstore/ocistore"
	"daml.com/x/assetres/pkg/remote"
	"daml.com/x/assetres/pkg/resolution"
	"daml.com/x/assetres/pkg/variant"
	"github.com/spf13/cobra"
)

const DefaultTag = "latest"

type Flags struct {
	Bundle string
	Ref    string
	Dpr    float64
}

func (f *Flags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Bundle, "bundle", "b", ".", "directory of the asset bundle")
	cmd.Flags().StringVarP(&f.Ref, "ref", "r", "", "read the bundle from the registry instead, as name[:tag]")
	cmd.Flags().Float64Var(&f.Dpr, "dpr", 0, "target device pixel ratio (defaults to the configured one, or the baseline asset)")
	cmd.MarkFlagsMutuallyExclusive("bundle", "ref")
}

// Target returns the density to resolve for. The flag wins over the config; nil means the baseline asset.
func (f *Flags) Target(cmd *cobra.Command, config *assetconfig.Config) (*float64, error) {
	if !cmd.Flags().Changed("dpr") {
		return config.DevicePixelRatio, nil
	}
	if !variant.IsValidDensity(f.Dpr) {
		return nil, fmt.Errorf("--dpr must be positive and finite, got %v", f.Dpr)
	}
	dpr := f.Dpr
	return &dpr, nil
}

func (f *Flags) Store(config *assetconfig.Config) (assetstore.Store, error) {
	if f.Ref == "" {
		return assetstore.NewDir(f.Bundle)
	}

	name, tag, err := ParseRef(f.Ref)
	if err != nil {
		return nil, err
	}
	client, err := remote.NewFromConfig(config)
	if err != nil {
		return nil, err
	}
	return ocistore.NewFromConfig(config, client, name, tag)
}

func (f *Flags) Resolver(config *assetconfig.Config) (*resolution.Resolver, error) {
	store, err := f.Store(config)
	if err != nil {
		return nil, err
	}
	return resolution.NewFromConfig(config, store), nil
}

// ParseRef splits name[:tag], the tag defaulting to DefaultTag
func ParseRef(ref string) (name, tag string, err error) {
	name, tag, found := strings.Cut(ref, ":")
	if name == "" {
		return "", "", fmt.Errorf("invalid bundle reference %q: missing name", ref)
	}
	if !found {
		return name, DefaultTag, nil
	}
	if tag == "" {
		return "", "", fmt.Errorf("invalid bundle reference %q: empty tag", ref)
	}
	return name, tag, nil
}
