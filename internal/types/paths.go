// internal/types/paths.go
package types

import (
	"strconv"
	"strings"
)

/*
 * Field path segments for dotted record keys.
 *
 * A schema key such as "items.*.price" is split on "." into segments. Numeric
 * segments carry both their text (for map lookup) and their index (for array
 * lookup) because a dotted key cannot say which container it addresses.
 * "*" marks a wildcard that is expanded against the actual input.
 */

// PathSeparator joins segments of a dotted field path.
const PathSeparator = "."

// WildcardSegment is the path component that matches every element.
const WildcardSegment = "*"

// PathSegment represents one component of a field path.
type PathSegment struct {
	Key      string // literal segment text (empty for wildcards)
	Index    int    // array index when the segment is numeric
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool   // true = wildcard segment
}

// String renders the segment the way it appears in a dotted key.
func (s PathSegment) String() string {
	if s.Wildcard {
		return WildcardSegment
	}
	return s.Key
}

// KeySegment builds a literal segment, marking numeric text as an index.
func KeySegment(key string) PathSegment {
	if key == WildcardSegment {
		return PathSegment{Wildcard: true}
	}
	seg := PathSegment{Key: key}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 {
		seg.Index = n
		seg.IsIndex = true
	}
	return seg
}

// JoinPath renders segments back into a dotted key.
func JoinPath(path []PathSegment) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = seg.String()
	}
	return strings.Join(parts, PathSeparator)
}

// HasWildcard reports whether any segment is a wildcard.
func HasWildcard(path []PathSegment) bool {
	for _, seg := range path {
		if seg.Wildcard {
			return true
		}
	}
	return false
}
