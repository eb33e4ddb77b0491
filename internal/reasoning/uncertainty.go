package reasoning

import "github.com/vampirenirmal/krishicore/internal/tools"

// UncertaintyPolicy decides whether gathered tool results warrant an
// explicit uncertainty step. It is a detection heuristic, not proof of an
// actual conflict; uncertainty must be reported as a distinct step rather
// than silently resolved.
type UncertaintyPolicy func(results []tools.Result) bool

// DefaultUncertaintyPolicy flags a potential conflict when two or more
// results come from price or market sources, since those routinely disagree.
func DefaultUncertaintyPolicy(results []tools.Result) bool {
	priceTagged := 0
	for _, r := range results {
		if r.Kind == tools.KindPrice || r.Kind == tools.KindMarket {
			priceTagged++
		}
	}
	return priceTagged >= 2
}
