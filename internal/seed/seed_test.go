package seed

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vesaa/votedesk/internal/config"
	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/store"
)

const fixtures = `
teams:
  - name: Platform
    description: Infra and tooling
  - name: Design
polls:
  - name: Lunch
    status: active
    start_date: 2025-01-01
    options:
      - name: Pizza
      - name: Sushi
elections:
  - name: City Council
    start_date: 2025-06-01
    end_date: 2025-06-02
    election_type: municipal
parties:
  - name: Green Future
    registration_date: 2020-01-15
`

func newStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := &config.Config{
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "seed.db"),
		AdminUsername: "admin",
		AdminEmail:    "admin@votingsystem.com",
		AdminPassword: "admin123",
	}
	st, err := store.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(fixtures))
	require.NoError(t, err)

	require.Len(t, f.Teams, 2)
	assert.Equal(t, "Infra and tooling", f.Teams[0].Description)
	require.Len(t, f.Polls, 1)
	assert.Equal(t, "2025-01-01", f.Polls[0].StartDate)
	assert.Len(t, f.Polls[0].Options, 2)
	require.Len(t, f.Elections, 1)
	assert.Equal(t, "municipal", f.Elections[0].ElectionType)
	require.Len(t, f.Parties, 1)
	assert.Equal(t, "2020-01-15", f.Parties[0].RegistrationDate.String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unknown key", "teams:\n  - name: A\n    colour: red\n", "colour"},
		{"missing name", "polls:\n  - status: active\n", "polls[0]: name is required"},
		{"missing option name", "polls:\n  - name: P\n    options:\n      - description: x\n", "polls[0].options[0]: name is required"},
		{"not yaml", "teams: [", "parsing fixtures"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	f, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Teams)
}

func TestApply_Idempotent(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	f, err := Load(strings.NewReader(fixtures))
	require.NoError(t, err)

	rep, err := Apply(ctx, st, f, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, &Report{Teams: 2, Polls: 1, Elections: 1, Parties: 1}, rep)

	polls, err := st.ListPolls(ctx, "", store.Page{})
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, models.PollActive, polls[0].Status)
	assert.Len(t, polls[0].Options, 2)

	rep, err = Apply(ctx, st, f, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, &Report{Skipped: 5}, rep)
}

func TestApply_BadElectionDate(t *testing.T) {
	st := newStore(t)
	f := &Fixtures{Elections: []Election{{Name: "Broken", StartDate: "soon", EndDate: "2025-01-01", ElectionType: "x"}}}

	rep, err := Apply(context.Background(), st, f, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `election "Broken"`)
	assert.Zero(t, rep.Elections)
}
