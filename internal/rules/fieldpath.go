// internal/rules/fieldpath.go
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/checkpoint/internal/types"
)

/*
 * Field path handling for nested records.
 *
 * Dotted schema keys ("user.address.city", "items.*.price") address values
 * inside decoded records made of map[string]any and []any. Four operations:
 *
 *   - ParsePath: split a key into segments, enforcing MaxPathDepth (16) and
 *     MaxNestedWildcards (2)
 *   - Resolve: follow concrete segments through maps and slices
 *   - Flatten: collapse a nested record to dotted leaf keys
 *   - ExpandWildcards: bind every "*" to the elements actually present
 *
 * A numeric segment addresses either a slice index or a map key of the same
 * text; the container decides. Map keys are iterated in sorted order
 * (numeric order for sequential maps) so expansion is deterministic.
 */

// ResolveResult contains the resolved value and the actual path taken.
type ResolveResult struct {
	Value        any                 // resolved value (nil if not found)
	ResolvedPath []types.PathSegment // path with wildcards replaced by actual keys
	Found        bool                // true if path resolved to a value
}

// ParsePath splits a dotted key into segments.
// Returns ErrEmptyPath for an empty key or empty segment, ErrPathTooDeep past
// MaxPathDepth and ErrTooManyWildcards past MaxNestedWildcards.
func ParsePath(key string) ([]types.PathSegment, error) {
	if key == "" {
		return nil, types.ErrEmptyPath
	}
	parts := strings.Split(key, types.PathSeparator)
	if len(parts) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}

	path := make([]types.PathSegment, len(parts))
	wildcards := 0
	for i, part := range parts {
		if part == "" {
			return nil, types.ErrEmptyPath
		}
		path[i] = types.KeySegment(part)
		if path[i].Wildcard {
			wildcards++
		}
	}
	if wildcards > types.MaxNestedWildcards {
		return nil, types.ErrTooManyWildcards
	}
	return path, nil
}

// Resolve traverses data following path segments.
// Wildcards take the first element in iteration order (ANY semantics).
// Returns ErrFieldNotFound if path does not exist in data.
func Resolve(path []types.PathSegment, data any) (ResolveResult, error) {
	if len(path) > types.MaxPathDepth {
		return ResolveResult{}, types.ErrPathTooDeep
	}
	if countWildcards(path) > types.MaxNestedWildcards {
		return ResolveResult{}, types.ErrTooManyWildcards
	}
	return resolveRecursive(path, data, nil)
}

func resolveRecursive(path []types.PathSegment, current any, resolvedSoFar []types.PathSegment) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{Value: current, ResolvedPath: resolvedSoFar, Found: true}, nil
	}

	seg := path[0]
	remaining := path[1:]

	if seg.Wildcard {
		for _, key := range childKeys(current) {
			elem, _ := child(current, key)
			resolved := append(resolvedSoFar[:len(resolvedSoFar):len(resolvedSoFar)], types.KeySegment(key))
			result, err := resolveRecursive(remaining, elem, resolved)
			if err == nil && result.Found {
				return result, nil
			}
		}
		return ResolveResult{}, types.ErrFieldNotFound
	}

	next, ok := child(current, seg.Key)
	if !ok {
		return ResolveResult{}, types.ErrFieldNotFound
	}
	return resolveRecursive(remaining, next, append(resolvedSoFar, seg))
}

// Extract returns the value at a dotted key.
func Extract(data map[string]any, key string) (any, bool) {
	path, err := ParsePath(key)
	if err != nil {
		return nil, false
	}
	result, err := Resolve(path, data)
	if err != nil {
		return nil, false
	}
	return result.Value, result.Found
}

// Has reports whether a dotted key resolves in data.
func Has(data map[string]any, key string) bool {
	_, ok := Extract(data, key)
	return ok
}

// Flatten collapses nested associative maps into dotted leaf keys.
// Sequential values ([]any, or maps keyed exactly "0".."n-1") and empty maps
// are kept whole as leaves; wildcard keys reach into them through Extract.
// Returns ErrPathTooDeep for nesting past MaxPathDepth and ErrRecordTooLarge
// past MaxRecordFields.
func Flatten(data map[string]any) (map[string]any, error) {
	flat := make(map[string]any, len(data))
	for key, value := range data {
		if err := flattenInto(flat, key, value, 1); err != nil {
			return nil, err
		}
	}
	return flat, nil
}

func flattenInto(flat map[string]any, prefix string, value any, depth int) error {
	m, ok := value.(map[string]any)
	if !ok || len(m) == 0 || isSequential(m) {
		if len(flat) >= types.MaxRecordFields {
			return types.ErrRecordTooLarge
		}
		flat[prefix] = value
		return nil
	}
	if depth >= types.MaxPathDepth {
		return fmt.Errorf("%w: %s", types.ErrPathTooDeep, prefix)
	}
	for _, key := range childKeys(m) {
		if err := flattenInto(flat, prefix+types.PathSeparator+key, m[key], depth+1); err != nil {
			return err
		}
	}
	return nil
}

// ExpandWildcards returns every concrete key the path matches in data, in
// deterministic order. Each wildcard binds to an element that exists;
// literal segments after the last wildcard need not exist. A path without
// wildcards expands to itself.
func ExpandWildcards(path []types.PathSegment, data any) []string {
	if !types.HasWildcard(path) {
		return []string{types.JoinPath(path)}
	}
	var out []string
	expandRecursive(path, data, nil, &out)
	return out
}

func expandRecursive(path []types.PathSegment, current any, prefix []string, out *[]string) {
	if !types.HasWildcard(path) {
		parts := append(prefix[:len(prefix):len(prefix)], pathStrings(path)...)
		*out = append(*out, strings.Join(parts, types.PathSeparator))
		return
	}

	seg := path[0]
	if seg.Wildcard {
		for _, key := range childKeys(current) {
			next, _ := child(current, key)
			expandRecursive(path[1:], next, append(prefix[:len(prefix):len(prefix)], key), out)
		}
		return
	}

	next, ok := child(current, seg.Key)
	if !ok {
		return
	}
	expandRecursive(path[1:], next, append(prefix[:len(prefix):len(prefix)], seg.Key), out)
}

// child returns the element of a map or slice under key.
func child(container any, key string) (any, bool) {
	switch v := container.(type) {
	case map[string]any:
		val, ok := v[key]
		return val, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v) {
			return nil, false
		}
		return v[i], true
	}
	return nil, false
}

// childKeys lists the keys of a map or slice in deterministic order.
// Scalars and empty containers have none.
func childKeys(container any) []string {
	switch v := container.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		if isSequential(v) {
			sort.Slice(keys, func(i, j int) bool {
				a, _ := strconv.Atoi(keys[i])
				b, _ := strconv.Atoi(keys[j])
				return a < b
			})
		} else {
			sort.Strings(keys)
		}
		return keys
	case []any:
		keys := make([]string, len(v))
		for i := range v {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}

// isSequential reports whether a non-empty map's keys are exactly "0".."n-1".
func isSequential(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for i := 0; i < len(m); i++ {
		if _, ok := m[strconv.Itoa(i)]; !ok {
			return false
		}
	}
	return true
}

func countWildcards(path []types.PathSegment) int {
	n := 0
	for _, seg := range path {
		if seg.Wildcard {
			n++
		}
	}
	return n
}

func pathStrings(path []types.PathSegment) []string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = seg.String()
	}
	return parts
}
