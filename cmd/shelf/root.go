package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/app"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

type contextKey string

const (
	coreKey    contextKey = "core"
	cfgKey     contextKey = "cfg"
	logKey     contextKey = "logger"
	sessionKey contextKey = "session"
)

// session holds what PersistentPreRunE opened so it is released after the
// command whether RunE succeeded or not.
type session struct {
	core   *app.Core
	log    logger.Logger
	closed bool
}

func (s *session) close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.log != nil {
		defer func() { _ = s.log.Sync() }()
	}
	if s.core == nil {
		return nil
	}
	return s.core.Close(ctx)
}

// Exit codes.
const (
	exitOK = iota
	exitGeneral
	exitValidation
	exitEmpty
	exitStorage
)

// CmdError wraps an error with the process exit code it maps to.
type CmdError struct {
	Err  error
	Code int
}

func (e *CmdError) Error() string { return e.Err.Error() }
func (e *CmdError) Unwrap() error { return e.Err }

func cmdErr(err error) *CmdError {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return &CmdError{Err: err, Code: exitValidation}
	case errors.Is(err, domain.ErrEmptyExport):
		return &CmdError{Err: err, Code: exitEmpty}
	case errors.Is(err, domain.ErrStorageWrite):
		return &CmdError{Err: err, Code: exitStorage}
	default:
		return &CmdError{Err: err, Code: exitGeneral}
	}
}

var rootCmd = &cobra.Command{
	Use:     "shelf",
	Short:   "Track, triage and export marketplace listings",
	Version: version.String(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)

		ctx := context.WithValue(cmd.Context(), cfgKey, cfg)
		ctx = context.WithValue(ctx, logKey, log)
		sess, _ := ctx.Value(sessionKey).(*session)
		if sess != nil {
			sess.log = log
		}

		if _, ok := cmd.Annotations["skipCore"]; ok {
			cmd.SetContext(ctx)
			return nil
		}

		backend, err := app.OpenBackend(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
		}
		core, err := app.NewCore(cfg, log, backend, app.NewSink(cfg, log))
		if err != nil {
			_ = backend.Close()
			return err
		}

		if sess != nil {
			sess.core = core
		}
		cmd.SetContext(context.WithValue(ctx, coreKey, core))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func getCore(cmd *cobra.Command) *app.Core {
	core, _ := cmd.Context().Value(coreKey).(*app.Core)
	return core
}

func getCfg(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey).(*config.Config)
	return cfg
}

func getLogger(cmd *cobra.Command) logger.Logger {
	log, _ := cmd.Context().Value(logKey).(logger.Logger)
	return log
}

func jsonMode(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// Execute runs the root command and returns an exit code.
func Execute() int {
	if err := run(context.Background(), rootCmd, os.Args[1:], &session{}); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)

		var ce *CmdError
		if errors.As(err, &ce) {
			return ce.Code
		}
		return exitGeneral
	}
	return exitOK
}

// run executes root with args, then flushes renames and closes the store
// opened for the command, also when the command failed.
func run(ctx context.Context, root *cobra.Command, args []string, sess *session) error {
	root.SetArgs(args)
	err := root.ExecuteContext(context.WithValue(ctx, sessionKey, sess))
	if cerr := sess.close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = fmt.Errorf("closing store: %w", cerr)
	}
	return err
}
