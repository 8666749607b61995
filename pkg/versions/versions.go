// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package versions

import (
	"fmt"
	"slices"
	"strings"

	"daml.com/x/assetres/pkg/ocilister"
	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/opencontainers/go-digest"
	"github.com/samber/lo"
)

type Version struct {
	Version *semver.Version `json:"version,omitempty" yaml:"version,omitempty"`
	Digest  digest.Digest   `json:"digest,omitempty" yaml:"digest,omitempty"`
	Pulled  bool            `json:"pulled,omitempty" yaml:"pulled,omitempty"`
	Latest  bool            `json:"latest,omitempty" yaml:"latest,omitempty"`
	Tags    []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type Versions []*Version

// New lists the published versions of a bundle, marking the highest one and
// those already pulled into the local bundles cache
func New(published []ocilister.TaggedVersion, isPulled func(digest.Digest) bool) Versions {
	latest := ocilister.Latest(published)

	r := Versions(lo.Map(published, func(v ocilister.TaggedVersion, _ int) *Version {
		return &Version{
			Version: v.Version,
			Digest:  v.Digest,
			Pulled:  isPulled(v.Digest),
			Latest:  latest != nil && v.Version.Equal(latest.Version),
			Tags:    v.Tags,
		}
	}))
	r.Sort()
	return r
}

func (v Versions) Copy() Versions {
	r := make(Versions, len(v))
	lo.ForEach(v, func(e *Version, i int) {
		c := *e
		c.Tags = slices.Clone(e.Tags)
		r[i] = &c
	})
	return r
}

// Sort by semantic version number
func (v Versions) Sort() {
	slices.SortFunc(v, func(a, b *Version) int {
		return a.Version.Compare(b.Version)
	})
}

// Sort by pulled first, then by semantic version number
func (v Versions) SortByPulled() {
	slices.SortFunc(v, func(a, b *Version) int {
		if a.Pulled && !b.Pulled {
			return 1
		}

		if !a.Pulled && b.Pulled {
			return -1
		}

		return a.Version.Compare(b.Version)
	})
}

func (v Versions) Table() string {
	newV := v.Copy()
	newV.SortByPulled()

	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Rows(lo.Map(newV, func(row *Version, _ int) []string {
			indicator := ""

			version := row.Version.String()

			if len(row.Tags) > 0 {
				tags := strings.Join(row.Tags, ", ")
				version = fmt.Sprintf("%s\t(%s)", version, tags)
			}

			switch {
			case row.Latest:
				indicator = "*"
				version = lipgloss.NewStyle().
					Foreground(lipgloss.Color("2")).
					Bold(true).
					Render(version)
			case !row.Pulled:
				version = lipgloss.NewStyle().
					Faint(true).
					Italic(true).
					Render(version)
			}

			return []string{
				indicator,
				version,
			}
		})...).
		String()
}
