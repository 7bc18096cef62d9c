package tally

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var options = []Option{
	{ID: 3, Name: "Later", Order: 2},
	{ID: 1, Name: "Yes", Order: 0},
	{ID: 2, Name: "No", Order: 1},
}

func TestCount(t *testing.T) {
	votes := []Vote{
		{OptionID: 1, ParticipantID: 10},
		{OptionID: 1, ParticipantID: 11},
		{OptionID: 2, ParticipantID: 12},
	}

	got := Count(options, votes)
	want := Summary{
		TotalVotes: 3,
		Rows: []Row{
			{OptionID: 1, OptionName: "Yes", VoteCount: 2, Percentage: 66.67},
			{OptionID: 2, OptionName: "No", VoteCount: 1, Percentage: 33.33},
			{OptionID: 3, OptionName: "Later", VoteCount: 0, Percentage: 0},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Count() mismatch (-want +got):\n%s", diff)
	}
}

func TestCount_NoVotes(t *testing.T) {
	got := Count(options, nil)
	assert.Equal(t, 0, got.TotalVotes)
	assert.Len(t, got.Rows, 3)
	for _, r := range got.Rows {
		assert.Zero(t, r.Percentage)
	}
}

func TestCount_UnknownOption(t *testing.T) {
	votes := []Vote{{OptionID: 1}, {OptionID: 99}, {OptionID: 99}, {OptionID: 42}}

	got := Count(options, votes)
	assert.Equal(t, 4, got.TotalVotes)
	tail := got.Rows[len(got.Rows)-2:]
	assert.Equal(t, []Row{
		{OptionID: 42, OptionName: UnknownOption, VoteCount: 1, Percentage: 25},
		{OptionID: 99, OptionName: UnknownOption, VoteCount: 2, Percentage: 50},
	}, tail)
}

func TestCount_PercentagesSumTo100(t *testing.T) {
	spread := func(nOptions, nVotes int) ([]Option, []Vote) {
		opts := make([]Option, nOptions)
		for i := range opts {
			opts[i] = Option{ID: uint(i + 1), Order: i}
		}
		votes := make([]Vote, nVotes)
		for i := range votes {
			votes[i] = Vote{OptionID: uint(i%nOptions + 1)}
		}
		return opts, votes
	}

	tests := []struct {
		name     string
		options  int
		votes    int
		wantHead float64
	}{
		{"three options", 3, 7, 42.86},
		{"thirty options one vote each", 30, 30, 3.34},
		{"seven options", 7, 7, 14.29},
		{"many options few votes", 40, 3, 33.34},
		{"uneven", 11, 101, 9.91},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, votes := spread(tt.options, tt.votes)
			got := Count(opts, votes)

			var hundredths int
			for _, r := range got.Rows {
				hundredths += int(math.Round(r.Percentage * 100))
			}
			assert.Equal(t, 10000, hundredths)
			assert.Equal(t, tt.wantHead, got.Rows[0].Percentage)
		})
	}
}

func TestCount_DoesNotReorderInput(t *testing.T) {
	in := append([]Option(nil), options...)
	Count(in, nil)
	assert.Equal(t, options, in)
}

func TestByTeam(t *testing.T) {
	votes := []Vote{
		{OptionID: 1, ParticipantID: 1},
		{OptionID: 2, ParticipantID: 2},
		{OptionID: 2, ParticipantID: 3},
		{OptionID: 1, ParticipantID: 4}, // no team
	}
	teamOf := map[uint]uint{1: 100, 2: 100, 3: 200}

	got := ByTeam(options, votes, teamOf)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, got[100].TotalVotes)
	assert.Equal(t, 50.0, got[100].Rows[0].Percentage)
	assert.Equal(t, 1, got[200].TotalVotes)
	assert.Equal(t, 100.0, got[200].Rows[1].Percentage)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 100.0, Percent(3, 3))
	assert.Equal(t, 12.5, Percent(1, 8))
}
