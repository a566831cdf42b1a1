package service

import "recorss/internal/model"

// ResolveQuorum returns the feed's own quorum when set, else the global one.
func ResolveQuorum(source model.FeedSource, global int) int {
	if source.Quorum != nil {
		return *source.Quorum
	}
	return global
}

// Decide is Positive iff votes reach the quorum; a total equal to the quorum passes.
func Decide(votes float64, quorum int) model.Label {
	if votes >= float64(quorum) {
		return model.LabelPositive
	}
	return model.LabelNegative
}

// DecideAll pairs entries with their vote totals. Both slices are in source order
// and have equal length.
func DecideAll(entries []model.Entry, totals []float64, quorum int) []model.ScoredEntry {
	scored := make([]model.ScoredEntry, len(entries))
	for i, e := range entries {
		scored[i] = model.ScoredEntry{
			Entry:   e,
			Votes:   totals[i],
			Verdict: Decide(totals[i], quorum),
		}
	}
	return scored
}
