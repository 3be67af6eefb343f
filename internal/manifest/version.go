/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"
)

// maxReleaseSegments bounds the release part of a version; 1.2.3.4.5.6 is
// the longest accepted.
const maxReleaseSegments = 6

// versionPattern is the PEP 440 public version grammar, lower cased, with an
// optional local label that takes no part in ordering.
var versionPattern = regexp.MustCompile(`^v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(alpha|beta|preview|pre|rc|a|b|c)[-_.]?(\d*))?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?` +
	`(?:\+[a-z0-9]+(?:[-_.][a-z0-9]+)*)?$`)

// pre-release phases in ascending order; phaseFinal has no pre-release tag
const (
	phaseDevOnly uint64 = iota
	phaseAlpha
	phaseBeta
	phaseRC
	phaseFinal
)

var preTags = map[string]uint64{
	"a": phaseAlpha, "alpha": phaseAlpha,
	"b": phaseBeta, "beta": phaseBeta,
	"rc": phaseRC, "c": phaseRC, "pre": phaseRC, "preview": phaseRC,
}

// version is a parsed PEP 440 version.
type version struct {
	epoch   uint64
	release []uint64
	phase   uint64
	preN    uint64
	post    bool
	postN   uint64
	dev     bool
	devN    uint64
}

func (v version) plainRelease() bool {
	return v.phase == phaseFinal && !v.post && !v.dev
}

func parseVersion(s string) (version, error) {
	m := versionPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	num := func(g string) uint64 {
		if g == "" {
			return 0
		}
		n, err := strconv.ParseUint(g, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}

	var v version
	v.epoch = num(m[1])
	for _, seg := range strings.Split(m[2], ".") {
		n, err := strconv.ParseUint(seg, 10, 64)
		if err != nil {
			return version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		v.release = append(v.release, n)
	}
	if len(v.release) > maxReleaseSegments {
		return version{}, fmt.Errorf("%w: %q has more than %d release segments", ErrInvalidVersion, s, maxReleaseSegments)
	}

	v.phase = phaseFinal
	if m[3] != "" {
		v.phase = preTags[m[3]]
		v.preN = num(m[4])
	}
	switch {
	case m[5] != "":
		v.post, v.postN = true, num(m[5])
	case m[6] != "":
		v.post, v.postN = true, num(m[7])
	}
	if m[8] != "" {
		v.dev, v.devN = true, num(m[9])
		// 1.0.dev0 sorts before every pre-release of 1.0
		if v.phase == phaseFinal && !v.post {
			v.phase = phaseDevOnly
		}
	}
	return v, nil
}

// key maps v onto a semver.Version with the same ordering. The epoch is
// the major number; the padded release and the phase markers are numeric
// pre-release identifiers of a fixed length, so they compare element-wise.
func (v version) key() semver.Version {
	tail := [6]uint64{v.phase, v.preN, 0, v.postN, 1, v.devN}
	if v.post {
		tail[2] = 1
	}
	if v.dev {
		tail[4] = 0
	}
	return encode(v.epoch, v.release, tail)
}

// releaseKey is the lowest key of every version starting with release,
// below its dev releases.
func releaseKey(epoch uint64, release []uint64) semver.Version {
	return encode(epoch, release, [6]uint64{})
}

// postCeiling is above every post-release of release.
func postCeiling(epoch uint64, release []uint64) semver.Version {
	return encode(epoch, release, [6]uint64{phaseFinal, 0, 1, math.MaxUint64, 1, math.MaxUint64})
}

func encode(epoch uint64, release []uint64, tail [6]uint64) semver.Version {
	pre := make([]semver.PRVersion, 0, maxReleaseSegments+len(tail))
	for i := 0; i < maxReleaseSegments; i++ {
		var n uint64
		if i < len(release) {
			n = release[i]
		}
		pre = append(pre, semver.PRVersion{VersionNum: n, IsNum: true})
	}
	for _, n := range tail {
		pre = append(pre, semver.PRVersion{VersionNum: n, IsNum: true})
	}
	return semver.Version{Major: epoch, Pre: pre}
}

// prefixRange returns the half open key range [lo, hi) of the versions whose
// release starts with the first parts segments of release, e.g. 1.2 matches
// [1.2.dev0, 1.3.dev0).
func prefixRange(epoch uint64, release []uint64, parts int) (semver.Version, semver.Version) {
	if parts < 1 {
		parts = 1
	}
	prefix := make([]uint64, parts)
	copy(prefix, release)
	next := make([]uint64, parts)
	copy(next, prefix)
	next[parts-1]++
	return releaseKey(epoch, prefix), releaseKey(epoch, next)
}
