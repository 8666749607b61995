// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"
	"log/slog"

	"daml.com/x/assetres/cmd/assetres/cmd/source"
	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/builtincommand"
	"daml.com/x/assetres/pkg/resolution"
	"daml.com/x/assetres/pkg/resolutionerrors"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func Cmd(config *assetconfig.Config) *cobra.Command {
	var output string
	src := &source.Flags{}

	cmd := &cobra.Command{
		Use:   string(builtincommand.Resolve) + " <asset-key>...",
		Short: "choose the variant of each asset key for the target density",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := src.Target(cmd, config)
			if err != nil {
				return err
			}
			resolver, err := src.Resolver(config)
			if err != nil {
				return err
			}

			resolved := make([]*resolution.Resolved, 0, len(args))
			for _, key := range args {
				r, err := resolver.ResolveSync(cmd.Context(), key, target)
				if err != nil {
					slog.ErrorContext(cmd.Context(), "failed to resolve asset", "key", key, "error", err)
					return printError(cmd, resolutionerrors.Standardize(err))
				}
				resolved = append(resolved, r)
			}

			return printResolved(cmd, output, resolved)
		},
	}

	src.Register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json, yaml")
	return cmd
}

func printResolved(cmd *cobra.Command, output string, resolved []*resolution.Resolved) error {
	switch output {
	case "table":
		t := table.New().Border(lipgloss.HiddenBorder()).Headers("ASSET", "PATH", "SCALE", "KEY")
		t.Rows(lo.Map(resolved, func(r *resolution.Resolved, _ int) []string {
			return []string{r.Asset, r.Path, fmt.Sprintf("%g", r.Scale), r.Key.String()}
		})...)
		cmd.Println(t.String())
	case "json":
		data, err := json.MarshalIndent(resolved, "", "    ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(resolved)
		if err != nil {
			return err
		}
		cmd.Print(string(data))
	default:
		return fmt.Errorf("output format not supported: %s", output)
	}
	return nil
}

// printError writes the standardized error as yaml to stderr, so callers can act on its code
func printError(cmd *cobra.Command, rerr *resolutionerrors.ResolutionError) error {
	data, err := yaml.Marshal(rerr)
	if err != nil {
		return err
	}
	cmd.PrintErr(string(data))
	return rerr
}
