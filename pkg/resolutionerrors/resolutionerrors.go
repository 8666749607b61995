// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package resolutionerrors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ManifestNotFound  = "MANIFEST_NOT_FOUND"
	MalformedManifest = "MALFORMED_MANIFEST"
	UnknownError      = "UNKNOWN_ERROR"
)

// ResolutionError is the single error reported for a resolution that couldn't
// obtain any manifest
type ResolutionError struct {
	Code     string
	AssetKey string
	// Attempted lists the manifests tried, in order
	Attempted []string
	Cause     error
}

func (r *ResolutionError) Error() string {
	var sb strings.Builder
	sb.WriteString(r.Code)
	if r.AssetKey != "" {
		fmt.Fprintf(&sb, ": resolving %q", r.AssetKey)
	}
	if len(r.Attempted) > 0 {
		fmt.Fprintf(&sb, " (tried %s)", strings.Join(r.Attempted, ", "))
	}
	if r.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(strings.ReplaceAll(r.Cause.Error(), "\n", "; "))
	}
	return sb.String()
}

func (r *ResolutionError) MarshalYAML() (interface{}, error) {
	var causeStr string
	if r.Cause != nil {
		causeStr = r.Cause.Error()
	}
	return map[string]interface{}{
		"code":      r.Code,
		"asset":     r.AssetKey,
		"attempted": r.Attempted,
		"cause":     causeStr,
	}, nil
}

func (r *ResolutionError) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var aux struct {
		Code      string   `yaml:"code"`
		Asset     string   `yaml:"asset"`
		Attempted []string `yaml:"attempted"`
		Cause     string   `yaml:"cause"`
	}
	if err := unmarshal(&aux); err != nil {
		return err
	}
	r.Code = aux.Code
	r.AssetKey = aux.Asset
	r.Attempted = aux.Attempted
	if aux.Cause != "" {
		r.Cause = errors.New(aux.Cause)
	}
	return nil
}

func (r *ResolutionError) Unwrap() error {
	return r.Cause
}

var _ error = (*ResolutionError)(nil)

func NewManifestNotFoundError(assetKey string, attempted []string, cause error) *ResolutionError {
	return &ResolutionError{
		Code:      ManifestNotFound,
		AssetKey:  assetKey,
		Attempted: attempted,
		Cause:     cause,
	}
}

func NewMalformedManifestError(assetKey string, attempted []string, cause error) *ResolutionError {
	return &ResolutionError{
		Code:      MalformedManifest,
		AssetKey:  assetKey,
		Attempted: attempted,
		Cause:     cause,
	}
}

func NewUnknownError(cause error) *ResolutionError {
	return &ResolutionError{
		Code:  UnknownError,
		Cause: cause,
	}
}

func Standardize(err error) *ResolutionError {
	if err == nil {
		return nil
	}

	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr
	}

	return NewUnknownError(err)
}
