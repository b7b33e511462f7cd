package planner

import "sort"

// Option is anything members can vote for.
type Option interface {
	OptionID() string
}

// Ranked pairs an option with its vote count.
type Ranked[O Option] struct {
	Option O
	Votes  int
}

// Rank orders options by descending vote count. Options with equal counts
// keep their creation order, so the earlier option wins a tie. Options
// without votes are included with a count of zero.
func Rank[O Option](options []O, counts Counts) []Ranked[O] {
	ranked := make([]Ranked[O], len(options))
	for i, o := range options {
		ranked[i] = Ranked[O]{Option: o, Votes: counts[o.OptionID()]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Votes > ranked[j].Votes
	})
	return ranked
}

// Top returns the winning option, or false when there are no options.
func Top[O Option](options []O, counts Counts) (O, bool) {
	ranked := Rank(options, counts)
	if len(ranked) == 0 {
		var zero O
		return zero, false
	}
	return ranked[0].Option, true
}
