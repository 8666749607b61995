// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"daml.com/x/assetres/cmd/assetres/cmd/source"
	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/ocipuller"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func pullCmd(config *assetconfig.Config) *cobra.Command {
	var localRegistry string

	cmd := &cobra.Command{
		Use:   "pull <name[:tag]>",
		Short: "fetch an asset bundle into the local bundles cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, tag, err := source.ParseRef(args[0])
			if err != nil {
				return err
			}

			var puller *ocipuller.Puller
			if localRegistry != "" {
				puller = ocipuller.NewLocal(config, localRegistry)
			} else {
				puller, err = ocipuller.NewFromRemoteConfig(config)
				if err != nil {
					return err
				}
			}

			pulled, err := puller.Pull(cmd.Context(), name, tag)
			if err != nil {
				return err
			}

			cmd.Printf("%s %s@%s (%d files)\n", color.GreenString("pulled"), pulled.Name, pulled.Version, len(pulled.Files))
			cmd.Println(pulled.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&localRegistry, "local-registry", "", "pull from oci-layout directories under this path instead of the registry")
	return cmd
}
