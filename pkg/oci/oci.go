// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oci

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	BundleArtifactType  = "application/vnd.assetres.bundle"
	BundleFileMediaType = "application/vnd.assetres.file"
	BundleRepoPrefix    = "assets/"

	AnnotationPrefix            = "com.assetres."
	DescriptorNameAnnotation    = AnnotationPrefix + "name"
	DescriptorVersionAnnotation = AnnotationPrefix + "version"
)

// BundleRepoName is the repository holding the bundle called name
func BundleRepoName(name string) string {
	return BundleRepoPrefix + name
}

// DescriptorAnnotations are required annotations on bundle manifests.
// They allow resolving floaty tags such as "latest" to the bundle's semver
type DescriptorAnnotations struct {
	Name    string
	Version *semver.Version
}

func (d DescriptorAnnotations) AppendToMap(annotations map[string]string) {
	annotations[DescriptorNameAnnotation] = d.Name
	annotations[DescriptorVersionAnnotation] = d.Version.String()
}

func Annotation(annotation string) string {
	return AnnotationPrefix + annotation
}

func VersionFromDescriptorAnnotations(descriptorAnnotations map[string]string) (*semver.Version, error) {
	err := fmt.Errorf("descriptor missing required %q annotations", DescriptorVersionAnnotation)
	if descriptorAnnotations == nil {
		return nil, err
	}
	version, ok := descriptorAnnotations[DescriptorVersionAnnotation]
	if !ok {
		return nil, err
	}

	return semver.NewVersion(version)
}
