package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/irispipe/internal/pipeerr"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitAssociation   = 3
	ExitUpstream      = 4
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case pipeerr.IsConfiguration(err):
		return ExitConfiguration
	case pipeerr.IsAssociation(err):
		return ExitAssociation
	case pipeerr.IsUpstream(err):
		return ExitUpstream
	default:
		return ExitFailure
	}
}

type globalFlags struct {
	logLevel  string
	logFormat string
}

// NewRootCommand builds the irispipe command tree. Every call returns fresh
// commands so that tests can run in parallel. Command output goes to outW,
// logs and usage messages to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "irispipe",
		Short: "Calibration pipeline for TMT/IRIS exposures",
		Long: `irispipe calibrates IRIS exposures listed in an association file.

It runs a profile of calibration steps (background subtraction, flat
fielding, ...) over every science exposure and writes calibrated products.
Reference files are looked up in a CRDS cache configured with CRDS_PATH,
CRDS_CONTEXT and CRDS_SERVER_URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: ExitConfiguration, Message: err.Error()}
	})

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newRunCommand(g),
		newProfilesCommand(g),
		newModelsCommand(g),
		newCompareCommand(),
	)
	return root
}

// Execute runs the command line args against a fresh command tree.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	slog.Debug("CLI parser started.", "args", args)
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		return &ExitError{Code: ExitConfiguration, Message: err.Error()}
	}
	return err
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &ExitError{Code: ExitConfiguration, Message: fmt.Sprintf("%s\n\n%s", err, cmd.UsageString())}
		}
		return nil
	}
}
