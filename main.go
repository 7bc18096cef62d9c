// VoteDesk: corporate polling and election administration API in one binary.
// Author: vesaa | License: MIT | https://github.com/vesaa/votedesk
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vesaa/votedesk/internal/config"
	"github.com/vesaa/votedesk/internal/logging"
	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/seed"
	"github.com/vesaa/votedesk/internal/server"
	"github.com/vesaa/votedesk/internal/store"
)

const asciiLogo = `
 ██╗   ██╗ ██████╗ ████████╗███████╗██████╗ ███████╗███████╗██╗  ██╗
 ██║   ██║██╔═══██╗╚══██╔══╝██╔════╝██╔══██╗██╔════╝██╔════╝██║ ██╔╝
 ██║   ██║██║   ██║   ██║   █████╗  ██║  ██║█████╗  ███████╗█████╔╝
 ╚██╗ ██╔╝██║   ██║   ██║   ██╔══╝  ██║  ██║██╔══╝  ╚════██║██╔═██╗
  ╚████╔╝ ╚██████╔╝   ██║   ███████╗██████╔╝███████╗███████║██║  ██╗
   ╚═══╝   ╚═════╝    ╚═╝   ╚══════╝╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝
`

const shutdownTimeout = 5 * time.Second

func printBanner(mode string) {
	fmt.Println(asciiLogo)
	fmt.Printf("  ► VoteDesk %s  |  Author: vesaa  |  Mode: %s\n\n", config.Version, mode)
}

// setup loads the config and builds the logger every command shares.
func setup() (*config.Config, *zap.Logger, zap.AtomicLevel, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zap.AtomicLevel{}, fmt.Errorf("loading config: %w", err)
	}
	log, level, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, zap.AtomicLevel{}, err
	}
	return cfg, log, level, nil
}

// openStore opens the database, migrates it and seeds roles and accounts.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Store, error) {
	st, err := store.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := st.Bootstrap(ctx, cfg); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}
	return st, nil
}

func main() {
	root := &cobra.Command{
		Use:   "votedesk",
		Short: "VoteDesk: corporate polls and election administration",
		Long: `VoteDesk serves two REST APIs from one binary: corporate polling under /api
(polls, teams, votes, feedback) and election administration under /api/v1
(elections, voters, parties, staff, ballots, complaints, results).`,
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), userCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// ── serve ────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("SERVER")

			cfg, log, level, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := config.Watch(func(l string) {
				if err := logging.SetLevel(level, l); err != nil {
					log.Warn("ignoring log level from config", zap.Error(err))
					return
				}
				log.Info("log level changed", zap.String("level", l))
			}); err != nil {
				log.Warn("config watch disabled", zap.Error(err))
			}

			if level.Level() > zap.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           server.New(st, cfg, log).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			fmt.Printf("  ✓ API     → http://%s/api  (corporate)\n", cfg.Addr())
			fmt.Printf("  ✓ API v1  → http://%s/api/v1  (elections)\n", cfg.Addr())
			fmt.Printf("  ✓ Web UI  → %t\n\n", cfg.ServeUI)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down")
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(sctx)
			})
			return g.Wait()
		},
	}
}

// ── migrate ──────────────────────────────────────────────────────────────────

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed default roles and accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, _, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Printf("  ✓ Database ready (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

// ── seed ─────────────────────────────────────────────────────────────────────

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load teams, polls, elections and parties from a YAML fixtures file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening fixtures: %w", err)
			}
			defer f.Close()
			fixtures, err := seed.Load(f)
			if err != nil {
				return err
			}

			cfg, log, _, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			rep, err := seed.Apply(cmd.Context(), st, fixtures, log)
			if err != nil {
				return err
			}
			fmt.Printf("  ✓ Seeded %d teams, %d polls, %d elections, %d parties (%d already present)\n",
				rep.Teams, rep.Polls, rep.Elections, rep.Parties, rep.Skipped)
			return nil
		},
	}
	cmd.Flags().String("file", "fixtures.yaml", "Path to the YAML fixtures file")
	return cmd
}

// ── user ─────────────────────────────────────────────────────────────────────

func userCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with the given role",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			in := store.NewUser{}
			in.Username, _ = flags.GetString("username")
			in.Email, _ = flags.GetString("email")
			in.Password, _ = flags.GetString("password")
			in.FullName, _ = flags.GetString("full-name")
			in.Role, _ = flags.GetString("role")
			in.Superuser, _ = flags.GetBool("superuser")

			cfg, log, _, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			u, err := st.CreateUser(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("creating user: %w", err)
			}
			fmt.Printf("  ✓ Created user %q (id %d, role %s)\n", u.Username, u.ID, u.RoleName())
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login name")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Password (6 to 72 characters)")
	createCmd.Flags().String("full-name", "", "Display name")
	createCmd.Flags().String("role", models.RoleParticipant, "Role: admin, moderator, participant, staff, party or voter")
	createCmd.Flags().Bool("superuser", false, "Grant superuser rights")
	for _, name := range []string{"username", "email", "password"} {
		_ = createCmd.MarkFlagRequired(name)
	}

	userCmd.AddCommand(createCmd)
	return userCmd
}

// ── version ──────────────────────────────────────────────────────────────────

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print VoteDesk version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("VoteDesk %s  |  Author: vesaa\n", config.Version)
		},
	}
}
