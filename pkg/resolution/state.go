// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package resolution

// State is a step of a resolution request, used for tracing
type State int

const (
	Start State = iota
	TryModern
	TryLegacy
	Resolve
	Done
	Error
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case TryModern:
		return "try-modern"
	case TryLegacy:
		return "try-legacy"
	case Resolve:
		return "resolve"
	case Done:
		return "done"
	case Error:
		return "error"
	default:
		return "Unknown"
	}
}
