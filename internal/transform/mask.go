package transform

import (
	"regexp"
	"strings"
)

// ReplaceMarker prefixes every replace directive hidden from the toolchain.
// Unmasking removes exactly this token and nothing else.
const ReplaceMarker = "// modsync-replace "

var (
	// replace example.com/a [v1.2.3] => ../a
	singleReplace = regexp.MustCompile(`^replace\s+\S+(?:\s+\S+)?\s+=>\s+\.\./`)
	// example.com/a [v1.2.3] => ../a   (inside a replace ( ... ) block)
	blockReplace = regexp.MustCompile(`^\S+(?:\s+\S+)?\s+=>\s+\.\./`)
	blockStart   = regexp.MustCompile(`^replace\s*\(\s*$`)
)

// MaskLocalReplaces comments out every replace directive whose target is a
// relative path outside the module directory. The toolchain may run under a
// different root (or inside a container) where such paths do not resolve.
//
// The rewrite only inserts ReplaceMarker after the line's indentation, so
// UnmaskLocalReplaces(MaskLocalReplaces(s)) == s for any s that does not
// already contain the marker.
func MaskLocalReplaces(content string) string {
	lines := strings.SplitAfter(content, "\n")
	inBlock := false
	for i, line := range lines {
		rest := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(rest)]

		switch {
		case inBlock:
			if strings.HasPrefix(rest, ")") {
				inBlock = false
				continue
			}
			if blockReplace.MatchString(rest) {
				lines[i] = indent + ReplaceMarker + rest
			}
		case blockStart.MatchString(rest):
			inBlock = true
		case singleReplace.MatchString(rest):
			lines[i] = indent + ReplaceMarker + rest
		}
	}
	return strings.Join(lines, "")
}

// UnmaskLocalReplaces strips every ReplaceMarker. Lines the toolchain
// rewrote in the meantime keep their other edits.
func UnmaskLocalReplaces(content string) string {
	return strings.ReplaceAll(content, ReplaceMarker, "")
}

// HasLocalReplaces reports whether masking would change content.
func HasLocalReplaces(content string) bool {
	return MaskLocalReplaces(content) != content
}
