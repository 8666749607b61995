// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

var errReadOnly = errors.New("registry credentials are read-only")

// readOnly keeps registry requests from writing tokens back into the user's credential store
type readOnly struct {
	credentials.Store
}

var _ credentials.Store = readOnly{}

func (r readOnly) Put(context.Context, string, auth.Credential) error {
	return errReadOnly
}

func (r readOnly) Delete(context.Context, string) error {
	return errReadOnly
}
