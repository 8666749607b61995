// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"daml.com/x/assetres/cmd/assetres/cmd/bundle"
	"daml.com/x/assetres/cmd/assetres/cmd/login"
	"daml.com/x/assetres/cmd/assetres/cmd/manifest"
	"daml.com/x/assetres/cmd/assetres/cmd/resolve"
	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/builtincommand"
	"daml.com/x/assetres/pkg/logging"
	"daml.com/x/assetres/pkg/version"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const (
	AppName = "assetres"

	resolutionGroupId = "resolution"
	registryGroupId   = "registry"
)

// App carries the process' streams and arguments, so tests can run the CLI in-process
type App struct {
	Stderr, Stdout io.Writer
	Stdin          io.Reader
	// must contain at least one argument, namely the binary name, similar to os.Args
	OsArgs []string
}

func (a *App) SetOutputStreams(cmd *cobra.Command) {
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)
	cmd.SetIn(a.Stdin)

	lo.ForEach(cmd.Commands(), func(sub *cobra.Command, _ int) {
		a.SetOutputStreams(sub)
	})
}

func RootCmd(ctx context.Context, app *App) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   AppName,
		Short: "resolve density variants of image assets",
	}

	defer app.SetOutputStreams(cmd)

	if len(app.OsArgs) == 0 {
		return nil, fmt.Errorf("App.OsArgs must contain at least one entry similar to os.Args")
	}

	cmd.SetArgs(app.OsArgs[1:])
	cmd.AddGroup(&cobra.Group{
		ID:    resolutionGroupId,
		Title: "Resolution Commands",
	})
	cmd.AddGroup(&cobra.Group{
		ID:    registryGroupId,
		Title: "Registry Commands",
	})

	if err := logging.InitLoggingTo(app.Stderr); err != nil {
		return nil, err
	}

	config, err := assetconfig.Get()
	if err != nil {
		return nil, err
	}
	if err := config.EnsureDirs(); err != nil {
		return nil, err
	}

	cmd.AddCommand(
		setCmdGroup(resolve.Cmd(config), resolutionGroupId),
		setCmdGroup(manifest.Cmd(config), resolutionGroupId),
		setCmdGroup(bundle.Cmd(config), registryGroupId),
		setCmdGroup(login.Cmd(config), registryGroupId),
		versionCmd(),
	)

	v, err := yaml.Marshal(version.Get())
	if err != nil {
		return nil, err
	}
	cmd.Version = string(v)
	cmd.SetVersionTemplate("{{.Version}}")

	return cmd, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   string(builtincommand.Version),
		Short: "show the version of " + AppName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := yaml.Marshal(version.Get())
			if err != nil {
				return err
			}
			cmd.Print(string(v))
			return nil
		},
	}
}

func setCmdGroup(cmd *cobra.Command, groupId string) *cobra.Command {
	cmd.GroupID = groupId
	return cmd
}
