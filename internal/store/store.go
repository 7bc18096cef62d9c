// Package store is the votedesk database layer. It opens GORM with SQLite
// (default) or PostgreSQL, migrates the schema, seeds the default roles and
// accounts, and implements every read and write the API performs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vesaa/votedesk/internal/config"
	"github.com/vesaa/votedesk/internal/models"
)

// Store wraps the database handle. All methods are safe for concurrent use.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// Open opens the database and runs AutoMigrate.
func Open(cfg *config.Config, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(cfg.DBPath))
	case "postgres":
		conn, err := sql.Open("postgres", cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: conn})
	default:
		return nil, fmt.Errorf("unsupported db_driver %q (use 'sqlite' or 'postgres')", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.DBDriver != "postgres" {
		// SQLite allows one writer; a single connection serialises
		// transactions instead of failing them with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	log.Info("database opened", zap.String("driver", cfg.DBDriver), zap.String("path", cfg.DBPath))
	return &Store{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SetClock replaces the time source used for timestamps and vote windows.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Bootstrap creates the default roles, the configured superuser and, when
// enabled, the test participant. It is idempotent.
func (s *Store) Bootstrap(ctx context.Context, cfg *config.Config) error {
	db := s.db.WithContext(ctx)
	for _, r := range models.DefaultRoles {
		role := r
		if err := db.Where(models.Role{Name: role.Name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seeding role %s: %w", role.Name, err)
		}
	}

	accounts := []NewUser{{
		Username:  cfg.AdminUsername,
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		FullName:  "System Administrator",
		Role:      models.RoleAdmin,
		Superuser: true,
	}}
	if cfg.SeedTestUser {
		accounts = append(accounts, NewUser{
			Username: "user",
			Email:    "user@votingsystem.com",
			Password: "user123",
			FullName: "Test User",
			Role:     models.RoleParticipant,
		})
	}
	for _, acct := range accounts {
		var n int64
		if err := db.Model(&models.User{}).Where("username = ?", acct.Username).Count(&n).Error; err != nil {
			return fmt.Errorf("checking user %s: %w", acct.Username, err)
		}
		if n > 0 {
			s.log.Debug("bootstrap user exists", zap.String("username", acct.Username))
			continue
		}
		if _, err := s.CreateUser(ctx, acct); err != nil {
			return fmt.Errorf("seeding user %s: %w", acct.Username, err)
		}
		s.log.Info("bootstrap user created", zap.String("username", acct.Username), zap.String("role", acct.Role))
	}
	return nil
}

// ── Pagination ───────────────────────────────────────────────────────────────

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page selects a window of a list: skip rows, then return at most limit.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Skip < 0 {
		p.Skip = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return db.Offset(p.Skip).Limit(p.Limit)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// first loads one row, mapping a miss to a "<what> not found" problem.
func first[T any](db *gorm.DB, what string, conds ...any) (*T, error) {
	var out T
	err := db.First(&out, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(what)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", strings.ToLower(what), err)
	}
	return &out, nil
}

func exists(db *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// NameTaken reports whether a row of model already has the given name.
// It is used by fixture loading to stay idempotent.
func (s *Store) NameTaken(ctx context.Context, model any, name string) (bool, error) {
	return exists(s.db.WithContext(ctx), model, "name = ?", name)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func checkStatus(field, value string, allowed []string) error {
	if !oneOf(value, allowed) {
		return invalid("%s must be one of: %s", field, strings.Join(allowed, ", "))
	}
	return nil
}

func parseOptionalTime(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := models.ParseDateTime(*s)
	if err != nil {
		return nil, invalid("%s: %v", field, err)
	}
	return &t, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
