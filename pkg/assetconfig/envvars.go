// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetconfig

const envVarPrefix = "ASSETRES_"

const (
	// HomeEnvVar
	// ASSETRES_HOME is the absolute path to the `assetres` home directory
	HomeEnvVar = envVarPrefix + "HOME"

	// OciRegistryEnvVar
	// ASSETRES_REGISTRY overrides the OCI registry asset bundles are pushed to and pulled from
	OciRegistryEnvVar = envVarPrefix + "REGISTRY"

	// RegistryAuthConfigPathEnvVar
	// ASSETRES_REGISTRY_AUTH overrides the OCI registry auth file used.
	// Contains a path to a config file similar to docker’s config.json
	// 	default: $HOME/.docker/config.json
	RegistryAuthConfigPathEnvVar = envVarPrefix + "REGISTRY_AUTH"

	// AllowInsecureRegistryEnvVar
	// ASSETRES_INSECURE_REGISTRY allows an insecure registry to be used (http instead of https)
	AllowInsecureRegistryEnvVar = envVarPrefix + "INSECURE_REGISTRY"

	// LogLevelEnvVar
	// ASSETRES_LOG_LEVEL sets the log level.
	// 	Default: info
	//  Possible values: debug info warn error
	LogLevelEnvVar = envVarPrefix + "LOG_LEVEL"

	// DevicePixelRatioEnvVar
	// ASSETRES_DEVICE_PIXEL_RATIO is the target density used when a command isn't given one
	DevicePixelRatioEnvVar = envVarPrefix + "DEVICE_PIXEL_RATIO"

	// FetchTimeoutEnvVar
	// ASSETRES_FETCH_TIMEOUT bounds each fetch from a remote asset bundle, e.g. "30s"
	FetchTimeoutEnvVar = envVarPrefix + "FETCH_TIMEOUT"
)
