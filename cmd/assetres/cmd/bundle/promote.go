// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"fmt"
	"strings"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/publish"
	"daml.com/x/assetres/pkg/remote"
	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

func promoteCmd(config *assetconfig.Config) *cobra.Command {
	var destinationRegistry, registryAuth, blobCache string
	var insecure bool

	cmd := &cobra.Command{
		Use:     "promote <name> <version>",
		Short:   "re-publish a bundle version from the configured registry to another one",
		Example: "  assetres bundle promote icons 1.2.3 --destination-registry=registry.example.com/public",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := semver.NewVersion(args[1])
			if err != nil {
				return fmt.Errorf("invalid version argument: %w", err)
			}

			destinationRegistry = strings.TrimRight(destinationRegistry, "/")
			if destinationRegistry == "" {
				return fmt.Errorf("destination registry can't be the empty string")
			}
			cmd.SilenceUsage = true

			sourceClient, err := remote.NewFromConfig(config)
			if err != nil {
				return err
			}
			if registryAuth == "" {
				registryAuth = config.RegistryAuthPath
			}
			destinationClient, err := remote.New(destinationRegistry, registryAuth, insecure || config.Insecure)
			if err != nil {
				return err
			}

			if _, err := publish.Promote(cmd.Context(), sourceClient, destinationClient, args[0], version, blobCache, cmd); err != nil {
				return err
			}
			cmd.Println("successfully promoted " + args[0] + "@" + version.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&destinationRegistry, "destination-registry", "", "OCI registry to publish the bundle to")
	cmd.MarkFlagRequired("destination-registry")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "use http instead of https for the destination registry")
	cmd.Flags().StringVar(&registryAuth, "auth", "", "path to a config file similar to docker's config.json to use for authenticating to the destination registry")
	cmd.Flags().StringVar(&blobCache, "oci-cache", "", "use an oci-cache to speed up pulls")

	return cmd
}
