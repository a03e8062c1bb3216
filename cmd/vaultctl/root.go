package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/vaultcore/pkg/config"
	"github.com/dmitrymomot/vaultcore/pkg/docstore"
	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
	"github.com/dmitrymomot/vaultcore/pkg/logger"
	"github.com/dmitrymomot/vaultcore/pkg/ratelimiter"
	"github.com/dmitrymomot/vaultcore/pkg/session"
)

type commandKey struct{}

// app holds the backends and session opened for one command.
type app struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	envFile string
	environ map[string]string // replaces the process environment when set

	cfg     cliConfig
	log     *slog.Logger
	kv      kvstore.Store
	docs    docstore.Store
	limiter *ratelimiter.Limiter
	account string
	mgr     *session.Manager
	prompt  *prompter
	closers []closer
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	return newApp(in, out, os.Stderr, nil).rootCmd()
}

func newApp(in io.Reader, out, errOut io.Writer, environ map[string]string) *app {
	return &app{in: in, out: out, errOut: errOut, environ: environ}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "vaultctl manages a TOTP protected local vault",
		Long:          "vaultctl registers an authenticator app, unlocks the vault with one-time codes or a remembered passphrase, and seals items with the vault key.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load variables from a .env file before reading the environment")

	root.AddCommand(
		a.setupCmd(),
		a.unlockCmd(),
		a.restoreCmd(),
		a.statusCmd(),
		a.resetCmd(),
		a.sealCmd(),
		a.openCmd(),
		a.rmCmd(),
		a.listCmd(),
		a.backupCodesCmd(),
	)
	return root
}

// run wraps a command body with backend setup and teardown.
func (a *app) run(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.WithValue(cmd.Context(), commandKey{}, cmd.Name())
		if err := a.open(ctx); err != nil {
			a.close(ctx)
			return err
		}
		defer a.close(ctx)

		// interrupt locks the vault before the process exits
		stop := context.AfterFunc(ctx, func() {
			a.mgr.HandleSignal(session.SignalTerminate)
		})
		defer stop()

		return fn(ctx, cmd, args)
	}
}

func (a *app) loadOpts() []config.Option {
	if a.environ == nil {
		return nil
	}
	return []config.Option{config.WithEnvironment(a.environ)}
}

func (a *app) open(ctx context.Context) error {
	if a.envFile != "" {
		if err := config.LoadEnv(a.envFile); err != nil {
			return err
		}
	}
	if err := config.Load(&a.cfg, append(a.loadOpts(), config.WithPrefix("VAULT_"))...); err != nil {
		return err
	}

	a.log = logger.New(
		logger.WithEnvironment(a.cfg.Env, "vaultctl"),
		logger.WithLevelName(a.cfg.LogLevel),
		logger.WithOutput(a.errOut),
		logger.WithContextValue("command", commandKey{}),
	)
	a.prompt = newPrompter(a.in, a.out)

	kv, closeKV, err := openKV(ctx, a.cfg, a.log, a.loadOpts()...)
	if err != nil {
		return err
	}
	a.kv = kv
	a.closers = append(a.closers, closeKV)

	docs, closeDocs, err := openDocs(ctx, a.cfg, kv, a.log, a.loadOpts()...)
	if err != nil {
		return err
	}
	a.docs = docs
	a.closers = append(a.closers, closeDocs)

	var rlCfg ratelimiter.Config
	if err := config.Load(&rlCfg, a.loadOpts()...); err != nil {
		return err
	}
	a.limiter, err = ratelimiter.New(kv, rlCfg,
		ratelimiter.WithLogger(a.log),
		ratelimiter.WithTamperHandler(func(_ context.Context, account string, _ error) {
			fmt.Fprintf(a.errOut, "warning: rate limit state for %q was invalid and has been cleared\n", account)
		}),
	)
	if err != nil {
		return err
	}

	var sessCfg session.Config
	if err := config.Load(&sessCfg, a.loadOpts()...); err != nil {
		return err
	}
	a.account = sessCfg.Account
	a.mgr, err = session.NewManager(ctx, kv,
		session.WithConfig(sessCfg),
		session.WithRateLimiter(a.limiter, ""),
		session.WithDocumentStore(docs),
		session.WithLogger(a.log),
		session.WithErrorReporter(session.ErrorReporterFunc(a.report)),
	)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) { _ = a.mgr.Close() })

	action, err := a.mgr.InitSession(ctx)
	if err != nil {
		return err
	}
	if action == session.InitHardLogout {
		fmt.Fprintln(a.errOut, "Remembered session expired; sign in again.")
	}
	return nil
}

// close runs closers in reverse order of opening.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](context.WithoutCancel(ctx))
	}
	a.closers = nil
}

func (a *app) report(_ context.Context, op string, err error) {
	if errors.Is(err, session.ErrStorageTampered) {
		fmt.Fprintf(a.errOut, "warning: stored vault data was unreadable and has been ignored (%s)\n", op)
	}
}
