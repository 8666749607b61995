// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Printer is the subset of *cobra.Command output methods used outside of commands
type Printer interface {
	Println(i ...interface{})
	Printf(format string, i ...interface{})
}

// WriterPrinter prints to an io.Writer, e.g. for calling library code outside a command
type WriterPrinter struct {
	W io.Writer
}

func (p WriterPrinter) Println(i ...interface{}) {
	fmt.Fprintln(p.W, i...)
}

func (p WriterPrinter) Printf(format string, i ...interface{}) {
	fmt.Fprintf(p.W, format, i...)
}

var _ Printer = WriterPrinter{}
var _ Printer = (*cobra.Command)(nil)
