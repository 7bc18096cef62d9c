package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vesaa/votedesk/internal/config"
	"github.com/vesaa/votedesk/internal/models"
)

func TestMain(m *testing.M) {
	HashCost = bcrypt.MinCost
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:     "secret",
		TokenLifetime: 30,
		AdminUsername: "admin",
		AdminEmail:    "admin@votingsystem.com",
		AdminPassword: "admin123",
		SeedTestUser:  true,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := testConfig(t)
	s, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Bootstrap(context.Background(), cfg))
	s.SetClock(func() time.Time { return testNow })
	return s
}

func requireKind(t *testing.T, err error, kind error, detail string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
	if detail != "" {
		assert.Equal(t, detail, Detail(err))
	}
}

func TestBootstrap_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	s, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx, cfg))
	require.NoError(t, s.Bootstrap(ctx, cfg))

	var roles, users int64
	require.NoError(t, s.db.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, s.db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, len(models.DefaultRoles), roles)
	assert.EqualValues(t, 2, users)

	admin, err := s.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, models.RoleAdmin, admin.RoleName())
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestPage_Apply(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.CreateTeam(ctx, TeamInput{Name: name})
		require.NoError(t, err)
	}

	teams, err := s.ListTeams(ctx, Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "b", teams[0].Name)

	teams, err = s.ListTeams(ctx, Page{Skip: -5, Limit: 0})
	require.NoError(t, err)
	assert.Len(t, teams, 3)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "x.db?_pragma=busy_timeout(5000)", sqliteDSN("x.db"))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN("file::memory:?cache=shared"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBDriver = "oracle"
	_, err := Open(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db_driver")
}
