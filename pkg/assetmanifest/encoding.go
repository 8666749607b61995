// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package assetmanifest

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

type Encoding int

const (
	// Modern is the binary (CBOR) manifest carrying explicit densities
	Modern Encoding = iota
	// Legacy is the json manifest whose densities are inferred from variant paths
	Legacy
)

var Encodings = []Encoding{Modern, Legacy}

func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "bin":
		return Modern, nil
	case "json":
		return Legacy, nil
	default:
		return 0, fmt.Errorf("invalid manifest encoding %q. must be one of 'bin', 'json'", s)
	}
}

func (e Encoding) String() string {
	switch e {
	case Modern:
		return "bin"
	case Legacy:
		return "json"
	default:
		return "Unknown"
	}
}

func (e *Encoding) UnmarshalYAML(data []byte) error {
	var unmarshalled string
	if err := yaml.Unmarshal(data, &unmarshalled); err != nil {
		return fmt.Errorf("failed to unmarshal manifest encoding: %w", err)
	}
	s, err := ParseEncoding(unmarshalled)
	if err != nil {
		return err
	}

	*e = s
	return nil
}

func (e *Encoding) MarshalYAML() ([]byte, error) {
	s := e.String()
	if s == "Unknown" {
		return nil, fmt.Errorf("invalid manifest encoding enum value %d", int(*e))
	}
	return []byte(s), nil
}

var _ yaml.BytesUnmarshaler = (*Encoding)(nil)
var _ yaml.BytesMarshaler = (*Encoding)(nil)
