// Package tally turns raw poll votes into per-option counts and percentages.
// It works on plain values so the same code backs the live results endpoint
// and the materialised Result rows.
package tally

import (
	"math"
	"sort"
)

// UnknownOption is the label for votes whose option no longer exists.
const UnknownOption = "Unknown"

// Option is the subset of a poll option the tally needs.
type Option struct {
	ID    uint
	Name  string
	Order int
}

// Vote is one cast vote.
type Vote struct {
	OptionID      uint
	ParticipantID uint
}

// Row is the count for one option.
type Row struct {
	OptionID   uint    `json:"option_id"`
	OptionName string  `json:"option_name"`
	VoteCount  int     `json:"vote_count"`
	Percentage float64 `json:"percentage"`
}

// Summary is the full tally of a set of votes.
type Summary struct {
	TotalVotes int   `json:"total_votes"`
	Rows       []Row `json:"results"`
}

// Count tallies votes over options. Every option gets a row, in display
// order (Order, then ID), followed by any unknown options in ID order.
func Count(options []Option, votes []Vote) Summary {
	sorted := make([]Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})

	counts := make(map[uint]int, len(sorted))
	for _, v := range votes {
		counts[v.OptionID]++
	}

	rows := make([]Row, 0, len(sorted))
	known := make(map[uint]bool, len(sorted))
	for _, o := range sorted {
		known[o.ID] = true
		rows = append(rows, Row{OptionID: o.ID, OptionName: o.Name, VoteCount: counts[o.ID]})
	}

	var orphans []uint
	for id := range counts {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i] < orphans[j] })
	for _, id := range orphans {
		rows = append(rows, Row{OptionID: id, OptionName: UnknownOption, VoteCount: counts[id]})
	}

	total := len(votes)
	apportion(rows, total)
	return Summary{TotalVotes: total, Rows: rows}
}

// apportion sets row percentages to two decimals using largest remainder, so
// they add up to exactly 100 whenever total > 0. Ties go to the earlier row.
func apportion(rows []Row, total int) {
	if total <= 0 {
		return
	}
	const whole = 10000 // 100% in hundredths
	hundredths := make([]int, len(rows))
	rem := make([]int, len(rows))
	left := whole
	for i, r := range rows {
		hundredths[i] = r.VoteCount * whole / total
		rem[i] = r.VoteCount * whole % total
		left -= hundredths[i]
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rem[order[a]] > rem[order[b]] })
	for _, i := range order[:left] {
		hundredths[i]++
	}
	for i := range rows {
		rows[i].Percentage = float64(hundredths[i]) / 100
	}
}

// ByTeam tallies votes separately for each team. teamOf maps a participant
// to its team; participants without a team are left out.
func ByTeam(options []Option, votes []Vote, teamOf map[uint]uint) map[uint]Summary {
	grouped := make(map[uint][]Vote)
	for _, v := range votes {
		team, ok := teamOf[v.ParticipantID]
		if !ok {
			continue
		}
		grouped[team] = append(grouped[team], v)
	}
	out := make(map[uint]Summary, len(grouped))
	for team, vs := range grouped {
		out[team] = Count(options, vs)
	}
	return out
}

// Percent is part/total*100 rounded to two decimals; 0 when total is 0.
// Use it for single ratios such as turnout. Count apportions its rows itself.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
