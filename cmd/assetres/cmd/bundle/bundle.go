// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/builtincommand"
	"github.com/spf13/cobra"
)

func Cmd(config *assetconfig.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(builtincommand.Bundle),
		Short: "publish and fetch asset bundles through an OCI registry",
	}

	cmd.AddCommand(pushCmd(config))
	cmd.AddCommand(pullCmd(config))
	cmd.AddCommand(tagsCmd(config))
	cmd.AddCommand(promoteCmd(config))

	return cmd
}
