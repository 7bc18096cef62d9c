package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaa/votedesk/internal/models"
)

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newElection(t *testing.T, s *Store, status string) *models.Election {
	t.Helper()
	e, err := s.CreateElection(context.Background(), ElectionInput{
		Name:         "General",
		StartDate:    date(t, "2025-03-01"),
		EndDate:      date(t, "2025-03-31"),
		ElectionType: "parliamentary",
		Status:       status,
	})
	require.NoError(t, err)
	return e
}

func newVoter(t *testing.T, s *Store, email string) uint {
	t.Helper()
	u, err := s.RegisterVoter(context.Background(), VoterRegistration{
		FullName: "V", DateOfBirth: date(t, "1980-01-01"), Address: "A", Email: email, Password: "secret1",
	})
	require.NoError(t, err)
	return *u.VoterID
}

func TestCreateElection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := newElection(t, s, "")
	assert.Equal(t, models.ElectionPlanned, e.Status)

	got, err := s.GetElection(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-31", got.EndDate.String())

	_, err = s.CreateElection(ctx, ElectionInput{
		Name: "x", ElectionType: "y", StartDate: date(t, "2025-03-02"), EndDate: date(t, "2025-03-01"),
	})
	requireKind(t, err, ErrInvalid, "end_date must not be before start_date")

	_, err = s.CreateElection(ctx, ElectionInput{Name: "x", ElectionType: "y"})
	requireKind(t, err, ErrInvalid, "start_date is required")
}

func TestUpdateElection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e := newElection(t, s, "")

	got, err := s.UpdateElection(ctx, e.ID, ElectionUpdate{Status: strp(models.ElectionOngoing)})
	require.NoError(t, err)
	assert.Equal(t, models.ElectionOngoing, got.Status)

	early := date(t, "2025-01-01")
	_, err = s.UpdateElection(ctx, e.ID, ElectionUpdate{EndDate: &early})
	requireKind(t, err, ErrInvalid, "")

	list, err := s.ListElections(ctx, models.ElectionOngoing, Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCastBallot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	open := newElection(t, s, models.ElectionOngoing)
	closed := newElection(t, s, models.ElectionCompleted)
	voter := newVoter(t, s, "v@example.com")

	in := BallotInput{VoterID: voter, ElectionID: open.ID, VotingPlace: "School 5", VotingAddress: "Elm St"}
	b, err := s.CastBallot(ctx, in)
	require.NoError(t, err)
	assert.True(t, b.VotingTime.Equal(testNow))

	_, err = s.CastBallot(ctx, in)
	requireKind(t, err, ErrInvalid, "Voter has already voted in this election")

	closedIn := in
	closedIn.ElectionID = closed.ID
	_, err = s.CastBallot(ctx, closedIn)
	requireKind(t, err, ErrInvalid, "Election is closed")

	missing := in
	missing.ElectionID = 999
	_, err = s.CastBallot(ctx, missing)
	requireKind(t, err, ErrNotFound, "Election not found")

	noVoter := in
	noVoter.VoterID = 999
	_, err = s.CastBallot(ctx, noVoter)
	requireKind(t, err, ErrNotFound, "Voter not found")

	list, err := s.ListBallots(ctx, open.ID, Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestElectionTurnout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e := newElection(t, s, models.ElectionOngoing)
	v1 := newVoter(t, s, "a@example.com")
	newVoter(t, s, "b@example.com")
	newVoter(t, s, "c@example.com")
	newVoter(t, s, "d@example.com")

	_, err := s.CastBallot(ctx, BallotInput{VoterID: v1, ElectionID: e.ID, VotingPlace: "p", VotingAddress: "a"})
	require.NoError(t, err)

	got, err := s.ElectionTurnout(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.Turnout{ElectionID: e.ID, Ballots: 1, RegisteredVoters: 4, TurnoutPercent: 25}, got)
}

func TestDeleteElection_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e := newElection(t, s, models.ElectionOngoing)
	voter := newVoter(t, s, "v@example.com")
	party, err := s.CreateParty(ctx, PartyInput{Name: "Reds"})
	require.NoError(t, err)

	_, err = s.CastBallot(ctx, BallotInput{VoterID: voter, ElectionID: e.ID, VotingPlace: "p", VotingAddress: "a"})
	require.NoError(t, err)
	_, err = s.CreateVotingResult(ctx, VotingResultInput{ElectionID: e.ID, PartyID: party.ID, VoteCount: 1, Percentage: 100})
	require.NoError(t, err)

	require.NoError(t, s.DeleteElection(ctx, e.ID))

	ballots, err := s.ListBallots(ctx, e.ID, Page{})
	require.NoError(t, err)
	assert.Empty(t, ballots)
	results, err := s.ListVotingResults(ctx, e.ID, Page{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVotingResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e := newElection(t, s, "")
	party, err := s.CreateParty(ctx, PartyInput{Name: "Blues"})
	require.NoError(t, err)

	_, err = s.CreateVotingResult(ctx, VotingResultInput{ElectionID: e.ID, PartyID: 999})
	requireKind(t, err, ErrNotFound, "Party not found")
	_, err = s.CreateVotingResult(ctx, VotingResultInput{ElectionID: e.ID, PartyID: party.ID, Percentage: 120})
	requireKind(t, err, ErrInvalid, "percentage must be between 0 and 100")

	r, err := s.CreateVotingResult(ctx, VotingResultInput{ElectionID: e.ID, PartyID: party.ID, VoteCount: 10, Percentage: 40})
	require.NoError(t, err)

	neg := -1
	_, err = s.UpdateVotingResult(ctx, r.ID, VotingResultUpdate{VoteCount: &neg})
	requireKind(t, err, ErrInvalid, "vote_count must not be negative")

	n := 12
	got, err := s.UpdateVotingResult(ctx, r.ID, VotingResultUpdate{VoteCount: &n})
	require.NoError(t, err)
	assert.Equal(t, 12, got.VoteCount)
	assert.Equal(t, float64(40), got.Percentage)

	require.NoError(t, s.DeleteVotingResult(ctx, r.ID))
	_, err = s.GetVotingResult(ctx, r.ID)
	requireKind(t, err, ErrNotFound, "Result not found")
}
