// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref       string
		name, tag string
		wantErr   bool
	}{
		{ref: "icons", name: "icons", tag: DefaultTag},
		{ref: "icons:1.2.0", name: "icons", tag: "1.2.0"},
		{ref: "team/icons:stable", name: "team/icons", tag: "stable"},
		{ref: ":1.2.0", wantErr: true},
		{ref: "icons:", wantErr: true},
		{ref: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			name, tag, err := ParseRef(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.tag, tag)
		})
	}
}
