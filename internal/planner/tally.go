package planner

import "github.com/mmynk/hangout/internal/models"

// Counts maps option ID to the number of votes it received. Options without
// votes have no entry.
type Counts map[string]int

// Tally aggregates a vote ledger into per-option counts.
func Tally(votes models.VoteLedger) Counts {
	counts := make(Counts, len(votes))
	for _, optionID := range votes {
		if optionID == "" {
			continue
		}
		counts[optionID]++
	}
	return counts
}
