// Package pathnorm turns raw request paths into stable endpoint patterns by
// replacing volatile segments (numeric ids, UUIDs, object ids, long random
// tokens) with a placeholder. The ingestion pipeline is the single authority
// for this transformation; worker-supplied patterns are only compared against
// it, never trusted.
package pathnorm

import (
	"regexp"
	"strings"
)

// Placeholder replaces every volatile path segment.
const Placeholder = ":id"

var (
	uuidSegment     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	objectIDSegment = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	numericSegment  = regexp.MustCompile(`^\d+$`)
	longAlnum       = regexp.MustCompile(`^[a-zA-Z0-9]{20,}$`)
)

// Canonicalize maps a raw path to its endpoint pattern. It is deterministic
// and idempotent: Canonicalize(Canonicalize(p)) == Canonicalize(p), which
// lets independent call sites agree on the same pattern for the same path.
// An empty path is returned unchanged.
func Canonicalize(path string) string {
	if path == "" {
		return path
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if volatileSegment(seg) {
			segments[i] = Placeholder
		}
	}
	return "/" + strings.Join(segments, "/")
}

// volatileSegment reports whether a segment carries per-request identity
// rather than route structure. Checked in priority order; first match wins.
func volatileSegment(seg string) bool {
	switch {
	case uuidSegment.MatchString(seg):
		return true
	case objectIDSegment.MatchString(seg):
		return true
	case numericSegment.MatchString(seg):
		return true
	case longAlnum.MatchString(seg):
		return true
	}
	return false
}
