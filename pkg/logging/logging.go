// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"io"
	"log/slog"
	"os"

	"daml.com/x/assetres/pkg/assetconfig"
)

const DefaultLevel = "info"

// InitLogging installs a text handler on stderr at the level named by ASSETRES_LOG_LEVEL
func InitLogging() error {
	return InitLoggingTo(os.Stderr)
}

func InitLoggingTo(w io.Writer) error {
	logLevel, ok := os.LookupEnv(assetconfig.LogLevelEnvVar)
	if !ok || logLevel == "" {
		logLevel = DefaultLevel
	}
	return initLogging(w, logLevel)
}

func initLogging(w io.Writer, logLevel string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(logLevel)); err != nil {
		return err
	}

	slogHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(slogHandler))
	return nil
}
