// Package container picks toolchain image tags.
package container

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"
)

// DefaultImage is the toolchain image used when the config names none.
const DefaultImage = "renovate/go"

// LatestTag is used when no constraint is configured.
const LatestTag = "latest"

// ResolveTag picks an image tag for constraint.
//
// An empty constraint yields LatestTag. A bare version ("1.16", "v1.21.3")
// is used as the tag verbatim without the leading "v". Anything else is
// parsed as a semver range (">=1.15.0 <1.17.0", "^1.16", "~1.15.0") and the
// highest tag in available that satisfies it is returned.
func ResolveTag(constraint string, available []string) (string, error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return LatestTag, nil
	}
	if _, err := semver.ParseTolerant(constraint); err == nil && isBareVersion(constraint) {
		return strings.TrimPrefix(constraint, "v"), nil
	}

	expanded, err := expandRange(constraint)
	if err != nil {
		return "", fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	rng, err := semver.ParseRange(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}

	var (
		best    string
		bestVer semver.Version
	)
	for _, tag := range available {
		v, err := semver.ParseTolerant(tag)
		if err != nil {
			continue
		}
		if !rng(v) {
			continue
		}
		if best == "" || v.GT(bestVer) {
			best, bestVer = tag, v
		}
	}
	if best == "" {
		return "", fmt.Errorf("no image tag satisfies %q (candidates: %s)", constraint, strings.Join(available, ", "))
	}
	return best, nil
}

// Reference joins image and tag.
func Reference(image, tag string) string {
	if image == "" {
		image = DefaultImage
	}
	if tag == "" {
		tag = LatestTag
	}
	return image + ":" + tag
}

func isBareVersion(s string) bool {
	s = strings.TrimPrefix(s, "v")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return s != ""
}

// expandRange rewrites npm-style caret and tilde terms into comparator pairs
// and pads partial versions in comparators, since semver.ParseRange accepts
// neither.
func expandRange(constraint string) (string, error) {
	alts := strings.Split(constraint, "||")
	for i, alt := range alts {
		terms := strings.Fields(alt)
		for j, term := range terms {
			expanded, err := expandTerm(term)
			if err != nil {
				return "", err
			}
			terms[j] = expanded
		}
		alts[i] = strings.Join(terms, " ")
	}
	return strings.Join(alts, " || "), nil
}

func expandTerm(term string) (string, error) {
	ver := strings.TrimLeft(term, "<>=!^~")
	op := term[:len(term)-len(ver)]

	switch op {
	case "^", "~":
		v, n, err := partialVersion(ver)
		if err != nil {
			return "", err
		}
		lower := fmt.Sprintf(">=%d.%d.%d", v[0], v[1], v[2])
		var upper string
		switch {
		case op == "~" && n > 1:
			upper = fmt.Sprintf("<%d.%d.0", v[0], v[1]+1)
		case op == "~" || v[0] > 0 || n == 1:
			upper = fmt.Sprintf("<%d.0.0", v[0]+1)
		case v[1] > 0 || n == 2:
			upper = fmt.Sprintf("<0.%d.0", v[1]+1)
		default:
			upper = fmt.Sprintf("<0.0.%d", v[2]+1)
		}
		return lower + " " + upper, nil
	default:
		if !isBareVersion(ver) {
			return term, nil
		}
		v, _, err := partialVersion(ver)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%d.%d.%d", op, v[0], v[1], v[2]), nil
	}
}

// partialVersion parses "1", "1.16" or "v1.16.3", returning the components
// (missing ones zero) and how many were given.
func partialVersion(s string) ([3]uint64, int, error) {
	var v [3]uint64
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) > 3 {
		return v, 0, fmt.Errorf("version %q has too many components", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return v, 0, fmt.Errorf("version %q: %w", s, err)
		}
		v[i] = n
	}
	return v, len(parts), nil
}
