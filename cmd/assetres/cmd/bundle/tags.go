// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"fmt"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/ocilister"
	"daml.com/x/assetres/pkg/ocipuller"
	"daml.com/x/assetres/pkg/remote"
	"daml.com/x/assetres/pkg/versions"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func tagsCmd(config *assetconfig.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tags <name>",
		Short: "list the published versions of an asset bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote.NewFromConfig(config)
			if err != nil {
				return err
			}

			published, err := ocilister.ListBundleVersions(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if len(published) == 0 {
				cmd.Printf("No versions found for %q\n", args[0])
				return nil
			}

			v := versions.New(published, ocipuller.NewRemote(config, client).IsPulled)

			switch output {
			case "table":
				cmd.Println(v.Table())
			case "json":
				data, err := json.MarshalIndent(v, "", "    ")
				if err != nil {
					return err
				}
				cmd.Println(string(data))
			default:
				return fmt.Errorf("output format not supported: %s", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: json, table")
	return cmd
}
