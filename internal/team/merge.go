// Package team keeps a cooperative client's view of a shared session
// convergent. The guess log delivered by polling is the only source of truth:
// batches are merged by seq and the reveal state is recomputed from the whole
// log whenever it changes.
package team

import (
	"slices"

	"rapantix/internal/types"
)

// Merge unions batch into known by seq and returns the log sorted by seq.
// An event whose seq is already known is discarded. When nothing new arrived
// known itself is returned, so callers can compare identities to skip a
// replay.
func Merge(known, batch []types.GuessEvent) []types.GuessEvent {
	bySeq := make(map[int]types.GuessEvent, len(known)+len(batch))
	for _, e := range known {
		if _, ok := bySeq[e.Seq]; !ok {
			bySeq[e.Seq] = e
		}
	}
	for _, e := range batch {
		if _, ok := bySeq[e.Seq]; !ok {
			bySeq[e.Seq] = e
		}
	}

	merged := make([]types.GuessEvent, 0, len(bySeq))
	for _, e := range bySeq {
		merged = append(merged, e)
	}
	slices.SortFunc(merged, func(a, b types.GuessEvent) int { return a.Seq - b.Seq })

	if sameLog(known, merged) {
		return known
	}
	return merged
}

func sameLog(a, b []types.GuessEvent) bool {
	return slices.EqualFunc(a, b, func(x, y types.GuessEvent) bool {
		return x.Seq == y.Seq && x.Word == y.Word && x.ClientID == y.ClientID && x.CreatedAt.Equal(y.CreatedAt)
	})
}

// Changed reports whether next is a different log than prev, by identity.
func Changed(prev, next []types.GuessEvent) bool {
	if len(prev) != len(next) {
		return true
	}
	if len(prev) == 0 {
		return false
	}
	return &prev[0] != &next[0]
}
