package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/prreview/internal/gitctx"
	"github.com/dshills/prreview/internal/output"
	"github.com/dshills/prreview/internal/providers"
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitUsageError   = 2
	ExitGitError     = 3
	ExitServiceError = 4
	ExitOutputError  = 5
)

// usageError marks a failure caused by how the command was invoked: bad
// arguments, flags, configuration or prompt template.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usage(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

// Run executes the command line and returns an exit code. SIGINT and SIGTERM
// cancel the review in flight.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	opts := &reviewOptions{}
	root := &cobra.Command{
		Use:   "prreview <source-branch> <target-branch>",
		Short: "Review a branch diff with a local LLM",
		Long: `prreview diffs <source-branch> against <target-branch>, asks an Ollama model
to review each changed file and prints a JSON object mapping file paths to
review text.`,
		Example: `  prreview feature/login main
  prreview --model qwen2.5-coder --workers 2 feature/login main > review.json
  prreview --format markdown --merge-base feature/login origin/main`,
		Args: func(cmd *cobra.Command, args []string) error {
			return usage(cobra.ExactArgs(2)(cmd, args))
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, opts, args[0], args[1])
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usage(err)
	})
	opts.addFlags(root)

	root.AddCommand(newConfigCmd())
	root.AddCommand(newModelsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print prreview version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "prreview version %s\n", version)
		},
	}
}

// exitCodeFor maps an error to the process exit code by its kind.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		ue    *usageError
		repoE *gitctx.RepositoryError
		refE  *gitctx.ReferenceError
		toolE *gitctx.ToolError
		netE  *providers.NetworkError
		svcE  *providers.ServiceError
		serE  *output.SerializationError
		dstE  *output.DestinationError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ExitRuntimeError
	case errors.As(err, &ue):
		return ExitUsageError
	case errors.As(err, &repoE), errors.As(err, &refE), errors.As(err, &toolE):
		return ExitGitError
	case errors.As(err, &netE), errors.As(err, &svcE):
		return ExitServiceError
	case errors.As(err, &serE), errors.As(err, &dstE):
		return ExitOutputError
	default:
		return ExitRuntimeError
	}
}
