// internal/rules/node.go
package rules

import "sort"

/*
 * Validation Node: one field's compiled rules.
 *
 * Rules are partitioned into cost tiers on insertion and sorted once, after
 * the whole field is compiled, by ascending exact cost. The sort is stable so
 * equal-cost rules keep declaration order (deterministic first error). After
 * SortRules the node is read-only.
 */

// Node holds one field's rules partitioned by cost tier.
type Node struct {
	tiers    [3][]Rule
	optional bool
	sorted   bool
}

// NodeStats summarizes a node for introspection.
type NodeStats struct {
	Cheap     int      `json:"cheap"`
	Medium    int      `json:"medium"`
	Expensive int      `json:"expensive"`
	Optional  bool     `json:"optional"`
	RuleTypes []string `json:"rule_types"`
}

// NewNode returns an empty, optional node.
func NewNode() *Node {
	return &Node{optional: true}
}

// AddRule files r under its cost tier. A presence rule makes the node required.
func (n *Node) AddRule(r Rule) {
	tier := TierOf(r.Cost())
	n.tiers[tier] = append(n.tiers[tier], r)
	if requiresPresence(r) {
		n.optional = false
	}
	n.sorted = false
}

// SortRules stable-sorts each tier by cost. Idempotent.
func (n *Node) SortRules() {
	if n.sorted {
		return
	}
	for _, tier := range n.tiers {
		sort.SliceStable(tier, func(i, j int) bool {
			return tier[i].Cost() < tier[j].Cost()
		})
	}
	n.sorted = true
}

// IsOptional reports whether the node lacks a presence rule.
func (n *Node) IsOptional() bool { return n.optional }

// IsEmpty reports whether the node has no rules.
func (n *Node) IsEmpty() bool { return n.RuleCount() == 0 }

// RuleCount returns the number of rules across tiers.
func (n *Node) RuleCount() int {
	return len(n.tiers[TierCheap]) + len(n.tiers[TierMedium]) + len(n.tiers[TierExpensive])
}

// RulesByTier returns the rules of one tier in execution order.
// The returned slice must not be modified.
func (n *Node) RulesByTier(t Tier) []Rule {
	if t < TierCheap || t > TierExpensive {
		return nil
	}
	return n.tiers[t]
}

// Stats reports per-tier counts, optionality and rule names in execution order.
func (n *Node) Stats() NodeStats {
	names := make([]string, 0, n.RuleCount())
	for _, tier := range n.tiers {
		for _, r := range tier {
			names = append(names, ruleName(r))
		}
	}
	return NodeStats{
		Cheap:     len(n.tiers[TierCheap]),
		Medium:    len(n.tiers[TierMedium]),
		Expensive: len(n.tiers[TierExpensive]),
		Optional:  n.optional,
		RuleTypes: names,
	}
}
