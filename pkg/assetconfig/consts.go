// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetconfig

import "time"

const (
	ConfigFileName = "assetres-config.yaml"
	LockFileName   = ".lock"

	UserAgentPrefix = "assetres"

	DefaultFetchTimeout = 30 * time.Second
)
