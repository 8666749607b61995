// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daml.com/x/assetres/pkg/assetconfig"
	"daml.com/x/assetres/pkg/oci"
	"daml.com/x/assetres/pkg/ocimanifest"
	"daml.com/x/assetres/pkg/ocipusher"
	"daml.com/x/assetres/pkg/remote"
	"github.com/Masterminds/semver/v3"
	"github.com/google/go-containerregistry/pkg/registry"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"oras.land/oras-go/v2/registry/remote/auth"
)

// HeartLegacyManifest is a legacy manifest for the files written by WriteHeartBundle
const HeartLegacyManifest = `{
  "assets/heart.png": ["assets/heart.png", "assets/2.0x/heart.png", "assets/4.0x/heart.png"]
}`

// WriteBundle writes files, keyed by slash separated path, below a fresh temp dir
func WriteBundle(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return dir
}

// WriteHeartBundle writes a bundle with 1x, 2x and 4x variants of assets/heart.png and a legacy manifest
func WriteHeartBundle(t *testing.T) string {
	return WriteBundle(t, map[string]string{
		"AssetManifest.json":    HeartLegacyManifest,
		"assets/heart.png":      "heart@1x",
		"assets/2.0x/heart.png": "heart@2x",
		"assets/4.0x/heart.png": "heart@4x",
	})
}

// PushBundle pushes the files of dir as bundle name:version, tagged with extraTags too
func PushBundle(t *testing.T, ctx context.Context, r *remote.Remote, name, version, dir string, extraTags ...string) *v1.Descriptor {
	v, err := semver.NewVersion(version)
	require.NoError(t, err)

	op, err := ocipusher.New(ctx, ocipusher.Opts{Name: name, Version: v, Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = op.Close() })

	desc, err := op.Do(ctx, r)
	require.NoError(t, err)

	if len(extraTags) > 0 {
		repo, err := r.Repo(oci.BundleRepoName(name))
		require.NoError(t, err)
		require.NoError(t, ocimanifest.Tag(ctx, repo, v, extraTags))
	}
	return desc
}

func getRemote(registry *httptest.Server) *remote.Remote {
	prefix := "http://"
	insecure := strings.HasPrefix(registry.URL, prefix)
	if !insecure {
		prefix = "https://"
	}
	return remote.NewWithCustomClient(strings.TrimPrefix(registry.URL, prefix), &auth.Client{Client: registry.Client()}, insecure)
}

// StartRegistry serves an in-memory registry and points the config env vars at it
func StartRegistry(t *testing.T) (client *remote.Remote, reg *httptest.Server) {
	reg = httptest.NewServer(registry.New())
	t.Cleanup(func() { reg.Close() })
	regUrl := strings.TrimPrefix(reg.URL, "http://")

	authConfig := filepath.Join(t.TempDir(), "empty-docker-config.json")
	require.NoError(t, os.WriteFile(authConfig, []byte(`{"auths": {}}`), 0o600))

	t.Setenv(assetconfig.OciRegistryEnvVar, regUrl)
	t.Setenv(assetconfig.RegistryAuthConfigPathEnvVar, authConfig)
	t.Setenv(assetconfig.AllowInsecureRegistryEnvVar, "true")

	return getRemote(reg), reg
}

type CommonSetupSuite struct {
	suite.Suite
}

// SetupTest points ASSETRES_HOME at a fresh temp dir before every test,
// otherwise all tests would share the default ~/.assetres
func (suite *CommonSetupSuite) SetupTest() {
	suite.T().Setenv(assetconfig.HomeEnvVar, suite.T().TempDir())
}

func Context(t *testing.T) context.Context {
	ctx, stopFn := context.WithCancel(context.Background())
	t.Cleanup(stopFn)
	return ctx
}

// Config loads the configuration for a fresh home dir
func Config(t *testing.T) *assetconfig.Config {
	config, err := assetconfig.GetWithCustomHome(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, config.EnsureDirs())
	return config
}
