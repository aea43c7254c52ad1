// internal/rules/cost.go
package rules

/*
 * Cost model for rule ordering.
 *
 * Every rule kind carries a static cost. Costs fall into three fixed tiers:
 *
 *   cheap     [0, 50)    type checks, presence, size, set membership, formats
 *   medium    [50, 100)  parsing (dates), expression evaluation
 *   expensive [100, inf) lookups against an external provider
 *
 * Expensive rules never run inline; they are deferred to the Batch Executor.
 */

// Tier is a cost band.
type Tier int

const (
	TierCheap Tier = iota
	TierMedium
	TierExpensive
)

// Tier boundaries.
const (
	MediumThreshold    = 50
	ExpensiveThreshold = 100
)

// Canonical rule costs.
const (
	CostBail      = 0
	CostPresence  = 1
	CostType      = 5
	CostSize      = 10
	CostSet       = 15
	CostAffix     = 20
	CostCompare   = 25
	CostFormat    = 30
	CostFormatNet = 40
	CostPattern   = 35
	CostRegex     = 45
	CostDate      = 55
	CostExpr      = 60
	CostLookup    = 100
)

// String returns the tier name used in statistics and logs.
func (t Tier) String() string {
	switch t {
	case TierCheap:
		return "cheap"
	case TierMedium:
		return "medium"
	case TierExpensive:
		return "expensive"
	default:
		return "unknown"
	}
}

// TierOf maps a cost to its tier. Negative costs count as cheap.
func TierOf(cost int) Tier {
	switch {
	case cost >= ExpensiveThreshold:
		return TierExpensive
	case cost >= MediumThreshold:
		return TierMedium
	default:
		return TierCheap
	}
}
