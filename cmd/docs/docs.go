// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command docs writes the assetres CLI reference, as markdown pages or man pages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	assetres "daml.com/x/assetres/cmd/assetres/cmd"
	"daml.com/x/assetres/pkg/assetconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func main() {
	ctx, cancelFn := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancelFn()

	if err := docsCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func docsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "docs <output dir>",
		Short: "generate the assetres CLI reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := writeReference(cmd.Context(), args[0], format); err != nil {
				return err
			}
			cmd.Printf("generated %s reference in %s\n", format, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "md", "md or man")
	return cmd
}

func writeReference(ctx context.Context, dir, format string) error {
	// defaults shown in the reference must not depend on the local home dir
	home, err := os.MkdirTemp("", "assetres-docs-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(home) }()
	if err := os.Setenv(assetconfig.HomeEnvVar, home); err != nil {
		return err
	}

	app := &assetres.App{Stdout: os.Stdout, Stderr: os.Stderr, Stdin: os.Stdin, OsArgs: []string{assetres.AppName}}
	root, err := assetres.RootCmd(ctx, app)
	if err != nil {
		return err
	}
	root.DisableAutoGenTag = true

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	switch format {
	case "md":
		return doc.GenMarkdownTree(root, dir)
	case "man":
		return doc.GenManTree(root, &doc.GenManHeader{Title: assetres.AppName, Section: "1"}, dir)
	default:
		return fmt.Errorf("unsupported format %q, want md or man", format)
	}
}
