package planner

import (
	"testing"
	"time"

	"github.com/mmynk/hangout/internal/models"
)

func locations(labels ...string) []models.LocationOption {
	opts := make([]models.LocationOption, len(labels))
	for i, l := range labels {
		opts[i] = models.LocationOption{ID: l, Label: l}
	}
	return opts
}

func rankedIDs[O Option](ranked []Ranked[O]) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Option.OptionID()
	}
	return ids
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		options   []models.LocationOption
		counts    Counts
		wantOrder []string
		wantVotes []int
	}{
		{
			name:      "no options",
			options:   nil,
			counts:    Counts{"A": 3},
			wantOrder: []string{},
			wantVotes: []int{},
		},
		{
			name:      "descending by count",
			options:   locations("A", "B", "C"),
			counts:    Counts{"A": 1, "B": 3, "C": 2},
			wantOrder: []string{"B", "C", "A"},
			wantVotes: []int{3, 2, 1},
		},
		{
			name:      "ties keep creation order",
			options:   locations("A", "B", "C"),
			counts:    Counts{"A": 2, "B": 2, "C": 1},
			wantOrder: []string{"A", "B", "C"},
			wantVotes: []int{2, 2, 1},
		},
		{
			name:      "later option wins only with more votes",
			options:   locations("A", "B", "C"),
			counts:    Counts{"C": 2, "B": 2},
			wantOrder: []string{"B", "C", "A"},
			wantVotes: []int{2, 2, 0},
		},
		{
			name:      "unvoted options ranked last in creation order",
			options:   locations("A", "B", "C", "D"),
			counts:    Counts{"C": 1},
			wantOrder: []string{"C", "A", "B", "D"},
			wantVotes: []int{1, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank(tt.options, tt.counts)
			got := rankedIDs(ranked)
			if len(got) != len(tt.wantOrder) {
				t.Fatalf("Rank() = %v, want %v", got, tt.wantOrder)
			}
			for i := range got {
				if got[i] != tt.wantOrder[i] {
					t.Errorf("Rank()[%d] = %s, want %s (full %v)", i, got[i], tt.wantOrder[i], got)
				}
				if ranked[i].Votes != tt.wantVotes[i] {
					t.Errorf("Rank()[%d].Votes = %d, want %d", i, ranked[i].Votes, tt.wantVotes[i])
				}
			}
		})
	}
}

func TestRankDoesNotReorderInput(t *testing.T) {
	opts := locations("A", "B")
	Rank(opts, Counts{"B": 5})
	if opts[0].ID != "A" || opts[1].ID != "B" {
		t.Errorf("input reordered: %v", opts)
	}
}

func TestTopDateOption(t *testing.T) {
	d1 := models.DateOption{ID: "d1", At: time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC)}
	d2 := models.DateOption{ID: "d2", At: time.Date(2026, 11, 2, 19, 0, 0, 0, time.UTC)}

	top, ok := Top([]models.DateOption{d1, d2}, Counts{"d2": 1})
	if !ok || top.ID != "d2" {
		t.Errorf("Top() = %v, %v; want d2", top.ID, ok)
	}

	if _, ok := Top([]models.DateOption{}, Counts{}); ok {
		t.Error("Top() on no options should report false")
	}
}
