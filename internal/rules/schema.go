// internal/rules/schema.go
package rules

import (
	"github.com/solatis/checkpoint/internal/types"
)

/*
 * Compiled schema.
 *
 * A Schema maps each field key to its Node. Keys are kept in sorted order
 * so validation walks fields deterministically. A Schema is immutable once
 * Compile returns and is safe to share across validators and goroutines.
 */

// Schema is the compiled form of a field -> spec map.
type Schema struct {
	fields []string
	nodes  map[string]*Node
	paths  map[string][]types.PathSegment
}

func newSchema(size int) *Schema {
	return &Schema{
		fields: make([]string, 0, size),
		nodes:  make(map[string]*Node, size),
		paths:  make(map[string][]types.PathSegment, size),
	}
}

// add appends a field. Compile feeds keys in sorted order.
func (s *Schema) add(field string, path []types.PathSegment, node *Node) {
	s.fields = append(s.fields, field)
	s.nodes[field] = node
	s.paths[field] = path
}

// Fields returns the schema keys in sorted order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Node returns the compiled node for a field key.
func (s *Schema) Node(field string) (*Node, bool) {
	n, ok := s.nodes[field]
	return n, ok
}

// Path returns the parsed segments of a field key.
func (s *Schema) Path(field string) []types.PathSegment {
	return s.paths[field]
}

// IsWildcard reports whether a field key contains "*".
func (s *Schema) IsWildcard(field string) bool {
	return types.HasWildcard(s.paths[field])
}

// HasLookups reports whether any field carries an expensive-tier rule.
func (s *Schema) HasLookups() bool {
	for _, n := range s.nodes {
		if len(n.RulesByTier(TierExpensive)) > 0 {
			return true
		}
	}
	return false
}

// Stats returns per-field node statistics.
func (s *Schema) Stats() map[string]NodeStats {
	out := make(map[string]NodeStats, len(s.nodes))
	for field, n := range s.nodes {
		out[field] = n.Stats()
	}
	return out
}
