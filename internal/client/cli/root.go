package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/webkech/internal/buildinfo"
	"github.com/dmitrijs2005/webkech/internal/client/client"
	"github.com/dmitrijs2005/webkech/internal/client/config"
	"github.com/dmitrijs2005/webkech/internal/client/repositories/kv"
	"github.com/dmitrijs2005/webkech/internal/client/services"
	"github.com/dmitrijs2005/webkech/internal/clock"
	"github.com/dmitrijs2005/webkech/internal/logging"
	"github.com/spf13/cobra"
)

// initStore is a seam for tests.
var initStore = client.InitStore

// root holds what the persistent pre-run builds for the subcommands.
type root struct {
	flags  config.Flags
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	app  *App
	repo kv.Repository
}

func newRoot(in io.Reader, out, errOut io.Writer) *root {
	return &root{in: in, out: out, errOut: errOut}
}

// command builds the cobra tree. Running it without a subcommand starts the REPL.
func (r *root) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webkech",
		Short: "Local account and session store for the WebKech dashboard",
		Long: `webkech manages the accounts, credentials and session of the WebKech
dashboard on a local storage backend (SQLite, Postgres, Redis or memory).

Run without a command to start the interactive shell.`,
		PersistentPreRunE: r.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			r.app.Run(cmd.Context())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(r.in)
	cmd.SetOut(r.out)
	cmd.SetErr(r.errOut)

	r.flags.Bind(cmd.PersistentFlags())

	cmd.AddCommand(
		r.action("repl", "Start the interactive shell", func(ctx context.Context) error {
			r.app.Run(ctx)
			return nil
		}),
		r.action("register", "Create an account and sign in", func(ctx context.Context) error { return r.app.Register(ctx) }),
		r.action("login", "Sign in to an existing account", func(ctx context.Context) error { return r.app.Login(ctx) }),
		r.action("logout", "Sign out", func(ctx context.Context) error { return r.app.Logout(ctx) }),
		r.action("whoami", "Show the signed-in account", func(ctx context.Context) error { return r.app.Whoami(ctx) }),
		r.action("status", "Show the session state", func(ctx context.Context) error { return r.app.Status(ctx) }),
		newVersionCmd(),
	)
	return cmd
}

func (r *root) action(use, short string, run func(ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Skips the storage setup of the root pre-run.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
			return nil
		},
	}
}

// setup loads the configuration, opens storage, seeds the demo account when
// enabled and restores the previous session.
func (r *root) setup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := r.flags.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.NewTextLogger(r.errOut, cfg.LogLevel)
	if err != nil {
		return err
	}

	repo, err := initStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	r.repo = repo

	store := services.NewSessionStore(repo, logger, clock.New(), services.StoreConfig{
		Namespace: cfg.Namespace,
		KDF:       cfg.KDF,
	})

	if cfg.SeedDemo {
		if err := store.SeedDemo(ctx); err != nil {
			return err
		}
	}
	if _, err := store.Restore(ctx); err != nil {
		return err
	}

	r.app = NewApp(store, logger, r.in, r.out)
	return nil
}

func (r *root) close() error {
	if r.repo == nil {
		return nil
	}
	return r.repo.Close()
}

// Execute runs the command line in args and returns the first error. The
// error has already been reported on errOut.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	r := newRoot(in, out, errOut)
	cmd := r.command()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if cerr := r.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(errOut, "Error:", services.UserMessage(err))
	}
	return err
}

// Main is the entry point used by cmd/webkech.
func Main(ctx context.Context) int {
	if err := Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		return 1
	}
	return 0
}
