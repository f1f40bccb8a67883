package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// cliFlags carry the persistent flags; non-empty values override the environment.
type cliFlags struct {
	envFile string
	addr    string
	driver  string
	dsn     string
}

func (f *cliFlags) config() (Config, error) {
	cfg, err := LoadConfig(f.envFile)
	if err != nil {
		return Config{}, err
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.driver != "" {
		cfg.Driver = f.driver
		if f.dsn == "" && os.Getenv("DATABASE_URL") == "" {
			cfg.DSN = defaultDSN(f.driver)
		}
	}
	if f.dsn != "" {
		cfg.DSN = f.dsn
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}
	root := &cobra.Command{
		Use:          "tasklist",
		Short:        "Kanban task lists with ordered columns and tasks",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => serve.
			return runServe(cmd, f)
		},
	}
	root.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&f.addr, "addr", "", "listen address (overrides ADDR)")
	root.PersistentFlags().StringVar(&f.driver, "driver", "", "store driver: sqlite, postgres or mongo (overrides STORE_DRIVER)")
	root.PersistentFlags().StringVar(&f.dsn, "dsn", "", "store connection string (overrides DATABASE_URL)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the store schema and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := f.config()
				if err != nil {
					return err
				}
				st, err := OpenStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.Driver)
				return nil
			},
		},
		newBoardCmd(f),
	)
	return root
}

func newBoardCmd(f *cliFlags) *cobra.Command {
	var (
		listID int64
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the columns and tasks of a list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			var (
				filter *int64
				title  string
			)
			if listID != 0 {
				l, err := st.GetTaskList(ctx, listID)
				if err != nil {
					return fmt.Errorf("list %d: %w", listID, err)
				}
				filter, title = &l.ID, l.Title
			} else if lists, err := st.ListTaskLists(ctx); err != nil {
				return err
			} else if len(lists) > 0 {
				filter, title = &lists[0].ID, lists[0].Title
			}

			board, err := LoadBoard(ctx, st, filter)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(board)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderBoard(title, board))
			return err
		},
	}
	cmd.Flags().Int64Var(&listID, "list", 0, "task list id (default: first list)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func runServe(cmd *cobra.Command, f *cliFlags) error {
	cfg, err := f.config()
	if err != nil {
		return err
	}
	log := cfg.newLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, log)
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func serve(ctx context.Context, cfg Config, log *slog.Logger) error {
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.SeedDefaultList {
		seeded, err := SeedDefaultList(ctx, st)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if seeded {
			log.Info("seeded default list", "title", seedListTitle)
		}
	}

	m := newMetrics()
	bus := NewEventBus(m, originChecker(cfg.CORSOrigins))
	srv := &http.Server{Addr: cfg.Addr, Handler: newHandler(cfg, st, log, m, bus),
		ReadTimeout: 15 * time.Second, ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	srv.RegisterOnShutdown(bus.Close)

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "driver", cfg.Driver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	ctxSh, cancelSh := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSh()
	if err := srv.Shutdown(ctxSh); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
