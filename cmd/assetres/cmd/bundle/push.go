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

type pushCmdFlags struct {
	dryRun, includeGitInfo bool
	annotations            map[string]string
	extraTags              []string

	registry, registryAuth string
	insecure               bool
}

func pushCmd(config *assetconfig.Config) *cobra.Command {
	c := pushCmdFlags{}
	cmd := &cobra.Command{
		Use:     "push <dir> <name> <version>",
		Short:   "publish a directory of assets and its manifests to the OCI registry",
		Example: "  assetres bundle push ./assets icons 1.2.3 -t latest",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := semver.NewVersion(args[2])
			if err != nil {
				return fmt.Errorf("invalid version argument: %w", err)
			}
			cmd.SilenceUsage = true

			publishConfig := &publish.Config{
				Dir:                args[0],
				Name:               args[1],
				Version:            version,
				DryRun:             c.dryRun,
				IncludeGitInfo:     c.includeGitInfo,
				Annotations:        c.annotations,
				ExtraTags:          c.extraTags,
				ModernManifestName: config.ModernManifestName,
				LegacyManifestName: config.LegacyManifestName,
			}

			var client *remote.Remote
			if !c.dryRun {
				client, err = c.remote(config)
				if err != nil {
					return err
				}
			}

			_, err = publish.New(publishConfig, cmd).Publish(cmd.Context(), client)
			return err
		},
	}

	cmd.Flags().BoolVarP(&c.dryRun, "dry-run", "d", false, "don't actually push to the registry")
	cmd.Flags().BoolVarP(&c.includeGitInfo, "include-git-info", "g", false, "include git info as annotations on the published manifest")
	cmd.Flags().StringToStringVarP(&c.annotations, "annotations", "a", map[string]string{}, "annotations to include in the published OCI artifact")
	cmd.Flags().StringSliceVarP(&c.extraTags, "extra-tags", "t", []string{}, "publish extra tags besides the semver")

	cmd.Flags().StringVar(&c.registry, "registry", "", "OCI registry to push to, instead of the configured one")
	cmd.Flags().BoolVar(&c.insecure, "insecure", false, "use http instead of https for OCI registry")
	cmd.Flags().StringVar(&c.registryAuth, "auth", "", "path to a config file similar to docker's config.json to use for authenticating to the OCI registry")

	return cmd
}

// remote is the configured registry, with any of the flag overrides applied
func (c *pushCmdFlags) remote(config *assetconfig.Config) (*remote.Remote, error) {
	if c.registry == "" {
		return remote.NewFromConfig(config)
	}

	authPath := c.registryAuth
	if authPath == "" {
		authPath = config.RegistryAuthPath
	}
	return remote.New(strings.TrimRight(c.registry, "/"), authPath, c.insecure || config.Insecure)
}
