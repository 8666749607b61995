// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"strings"

	"daml.com/x/assetres/cmd/assetres/cmd/source"
	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/assetmanifest"
	"daml.com/x/assetres/pkg/builtincommand"
	"daml.com/x/assetres/pkg/manifestgen"
	"daml.com/x/assetres/pkg/resolutionerrors"
	"daml.com/x/assetres/pkg/variant"
	"daml.com/x/assetres/pkg/variantresolver"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const allEncodings = "all"

func Cmd(config *assetconfig.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(builtincommand.Manifest),
		Short: "generate and inspect asset manifests",
	}
	cmd.AddCommand(buildCmd(config), showCmd(config))
	return cmd
}

func buildCmd(config *assetconfig.Config) *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "generate the asset manifests of a directory from its <N>x/ variant layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var encodings []assetmanifest.Encoding
			if encoding != allEncodings {
				e, err := assetmanifest.ParseEncoding(encoding)
				if err != nil {
					return err
				}
				encodings = append(encodings, e)
			}

			written, err := manifestgen.Write(cmd.Context(), config, args[0], encodings...)
			if err != nil {
				return err
			}
			for _, p := range written {
				cmd.Println(color.GreenString("wrote %s", p))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&encoding, "encoding", "e", allEncodings, "manifest encoding to write: bin, json, all")
	return cmd
}

func showCmd(config *assetconfig.Config) *cobra.Command {
	src := &source.Flags{}

	cmd := &cobra.Command{
		Use:   "show [asset-key]",
		Short: "list the manifest's asset keys, or the variants of one key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := src.Target(cmd, config)
			if err != nil {
				return err
			}
			resolver, err := src.Resolver(config)
			if err != nil {
				return err
			}

			m, err := resolver.Manifest(cmd.Context()).Await(cmd.Context())
			if err != nil {
				return resolutionerrors.Standardize(err)
			}

			if len(args) == 0 {
				cmd.Printf("# %s (%s manifest)\n", resolver.Store().Name(), m.Encoding())
				cmd.Println(strings.Join(m.Keys(), "\n"))
				return nil
			}

			key := args[0]
			cmd.Println(variantTable(variantresolver.BuildIndex(key, m.Variants(key)), target))
			return nil
		},
	}

	src.Register(cmd)
	return cmd
}

// variantTable renders a density index, marking the variant chosen for target
func variantTable(idx variantresolver.DensityIndex, target *float64) string {
	chosen := variant.BaselineDensity
	if target != nil {
		chosen = idx.Choose(*target).Density
	}

	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("", "DENSITY", "PATH").
		Rows(lo.Map(idx, func(e variantresolver.Entry, _ int) []string {
			marker := ""
			if e.Density == chosen {
				marker = "*"
			}
			return []string{marker, fmt.Sprintf("%gx", e.Density), e.Variant.Path}
		})...).
		String()
}
