// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetconfig

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"daml.com/x/assetres/pkg/assetmanifest"
	"daml.com/x/assetres/pkg/utils"
	"daml.com/x/assetres/pkg/variant"
	"daml.com/x/assetres/pkg/version"
	"github.com/goccy/go-yaml"
)

type Config struct {
	HomePath string `yaml:"-"`

	CachePath string `yaml:"-"`
	// oci-layout dir containing raw pulled blobs
	OciLayoutCache string `yaml:"-"`
	// dir containing asset bundles pulled from a registry
	BundlesPath  string `yaml:"-"`
	LockFilePath string `yaml:"-"`

	Registry         string `yaml:"registry,omitempty"`
	RegistryAuthPath string `yaml:"registry-auth-path,omitempty"`
	Insecure         bool   `yaml:"insecure,omitempty"`

	ModernManifestName string `yaml:"modern-manifest-name,omitempty"`
	LegacyManifestName string `yaml:"legacy-manifest-name,omitempty"`

	// DevicePixelRatio is the default target density, nil meaning the baseline asset
	DevicePixelRatio *float64 `yaml:"device-pixel-ratio,omitempty"`

	RawFetchTimeout string        `yaml:"fetch-timeout,omitempty"`
	FetchTimeout    time.Duration `yaml:"-"`
}

func (c *Config) EnsureDirs() error {
	return utils.EnsureDirs(c.HomePath, c.CachePath, c.OciLayoutCache, c.BundlesPath)
}

func Get() (*Config, error) {
	homePath, err := getHomePath()
	if err != nil {
		return nil, err
	}
	return GetWithCustomHome(homePath)
}

func GetWithCustomHome(homePath string) (*Config, error) {
	config := Config{}

	// assetres-config.yaml is optional
	configFilePath := filepath.Join(homePath, ConfigFileName)
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		if fileInfo.IsDir() {
			return nil, fmt.Errorf("%q is directory and not a file", configFilePath)
		}

		bytes, err := os.ReadFile(configFilePath)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(bytes, &config); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
		}
	}

	if registry, ok := os.LookupEnv(OciRegistryEnvVar); ok {
		config.Registry = registry
	}

	if registryAuthPath, ok := os.LookupEnv(RegistryAuthConfigPathEnvVar); ok {
		config.RegistryAuthPath = registryAuthPath
	}

	insecure, ok, err := utils.BoolEnvVar(AllowInsecureRegistryEnvVar)
	if err != nil {
		return nil, err
	}
	if ok {
		config.Insecure = insecure
	}

	dpr, ok, err := utils.FloatEnvVar(DevicePixelRatioEnvVar)
	if err != nil {
		return nil, err
	}
	if ok {
		config.DevicePixelRatio = &dpr
	}
	if config.DevicePixelRatio != nil && !variant.IsValidDensity(*config.DevicePixelRatio) {
		return nil, fmt.Errorf("device pixel ratio must be positive and finite, got %v", *config.DevicePixelRatio)
	}

	if timeout, ok := os.LookupEnv(FetchTimeoutEnvVar); ok {
		config.RawFetchTimeout = timeout
	}
	config.FetchTimeout = DefaultFetchTimeout
	if config.RawFetchTimeout != "" {
		d, err := time.ParseDuration(config.RawFetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid fetch timeout %q: %w", config.RawFetchTimeout, err)
		}
		config.FetchTimeout = d
	}

	config.ModernManifestName = cmp.Or(config.ModernManifestName, assetmanifest.DefaultModernManifestName)
	config.LegacyManifestName = cmp.Or(config.LegacyManifestName, assetmanifest.DefaultLegacyManifestName)

	cacheDir := filepath.Join(homePath, "cache")
	config.HomePath = homePath
	config.CachePath = cacheDir
	config.OciLayoutCache = filepath.Join(cacheDir, "oci-layout")
	config.BundlesPath = filepath.Join(cacheDir, "bundles")
	config.LockFilePath = filepath.Join(cacheDir, LockFileName)
	return &config, nil
}

func getHomePath() (string, error) {
	if v, ok := os.LookupEnv(HomeEnvVar); ok {
		return v, nil
	}

	return getAppUserDataDirectory("assetres")
}

func getAppUserDataDirectory(appName string) (string, error) {
	switch runtime.GOOS {
	case "windows":
		dir, ok := os.LookupEnv("APPDATA")
		if !ok {
			return "", fmt.Errorf("APPDATA environment variable is not set")
		}
		return filepath.Join(dir, appName), nil
	default:
		dir, ok := os.LookupEnv("HOME")
		if !ok {
			return "", fmt.Errorf("HOME environment variable is not set")
		}
		return filepath.Join(dir, "."+appName), nil
	}
}

func GetUserAgent() string {
	return fmt.Sprintf("%s/%s", UserAgentPrefix, version.GetVersion())
}
