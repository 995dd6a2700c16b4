package nativeresolver

import "github.com/jamessan/cupt"

// Weights bundles the configurable bonuses and penalties the score
// model reads from Policy.Weights, kept as plain fields here so
// nativeresolver doesn't import config (config.Load instead fills in
// nativeresolver's Policy and Weights types).
type Weights struct {
	InstalledBonus          float64
	TrustedBonus             float64
	RemovalPenalty           float64
	PriorityCrossingPenalty  float64
	SoftRelationBreakPenalty float64
}

// DefaultWeights matches cupt's historical preferences: keep installed
// and trusted versions in place, and treat removing an installed
// package or changing priority as costly relative to the 0..4 priority
// scale __getVersionWeight works on.
var DefaultWeights = Weights{
	InstalledBonus:           2,
	TrustedBonus:             1,
	RemovalPenalty:           10,
	PriorityCrossingPenalty:  3,
	SoftRelationBreakPenalty: 1,
}

// priorityWeight scores Required highest and Extra lowest on a 0..4
// scale.
func priorityWeight(p cupt.Priority) float64 {
	return float64(cupt.Extra - p)
}

// versionWeight is __get_version_weight: a monotone function of
// priority plus small bonuses for a version that's already installed
// or signed ("trusted"). A nil version (package absent) weighs zero.
func versionWeight(v *cupt.BinaryVersion, w Weights) float64 {
	if v == nil {
		return 0
	}
	weight := priorityWeight(v.Priority)
	if v.IsInstalled() {
		weight += w.InstalledBonus
	}
	if v.Trusted {
		weight += w.TrustedBonus
	}
	return weight
}

// actionProfit is __get_action_profit: the score delta of replacing
// old with new, penalising removal of an installed package and
// priority-boundary crossings. Profits compose additively across the
// actions folded into one solution.
func actionProfit(old, new *cupt.BinaryVersion, w Weights) float64 {
	profit := versionWeight(new, w) - versionWeight(old, w)
	if new == nil && old != nil && old.IsInstalled() {
		profit -= w.RemovalPenalty
	}
	if old != nil && new != nil && old.Priority != new.Priority {
		profit -= w.PriorityCrossingPenalty
	}
	return profit
}
