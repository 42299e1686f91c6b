package pricing

import "strings"

// Product-price plausibility window. Narrower than the normalizer's parse
// bounds: a parseable amount can still be implausible as a product price.
const (
	minPlausible = 1
	maxPlausible = 1_000_000
)

// SelectPrice applies the ranking policy over the collected candidates and
// returns the final price. The five steps run in exactly this order:
//
//  1. Filter to the plausible window; if nothing survives, fall back to the
//     first unfiltered candidate (weak signal beats no signal).
//  2. First high-priority candidate, in discovery order.
//  3. First candidate whose class hint contains a priority term, in
//     hint-list order.
//  4. Most frequent value, when it repeats across candidates.
//  5. Maximum value (decorative numbers are usually smaller than the
//     headline price).
func SelectPrice(cands []Candidate) (float64, bool) {
	if len(cands) == 0 {
		return 0, false
	}

	filtered := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Value >= minPlausible && c.Value <= maxPlausible {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return cands[0].Value, true
	}

	for _, c := range filtered {
		if c.Priority == PriorityHigh {
			return c.Value, true
		}
	}

	for _, hint := range priorityClassHints {
		for _, c := range filtered {
			if strings.Contains(strings.ToLower(c.ClassHint), hint) {
				return c.Value, true
			}
		}
	}

	freq := make(map[float64]int, len(filtered))
	for _, c := range filtered {
		freq[c.Value]++
	}
	bestCount := 0
	bestValue := 0.0
	for _, c := range filtered {
		// Iterate candidates, not the map, so ties break deterministically
		// on discovery order.
		if n := freq[c.Value]; n > bestCount {
			bestCount = n
			bestValue = c.Value
		}
	}
	if bestCount > 1 {
		return bestValue, true
	}

	max := filtered[0].Value
	for _, c := range filtered[1:] {
		if c.Value > max {
			max = c.Value
		}
	}
	return max, true
}
