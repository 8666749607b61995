// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package builtincommand

type BuiltinCommand string

const (
	Resolve  BuiltinCommand = "resolve"
	Manifest BuiltinCommand = "manifest"
	Bundle   BuiltinCommand = "bundle"
	Login    BuiltinCommand = "login"
	Version  BuiltinCommand = "version"
)
