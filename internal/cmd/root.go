package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
	"github.com/yyqs2008/jms-sdk-go/internal/debug"
	"github.com/yyqs2008/jms-sdk-go/internal/filter"
	"github.com/yyqs2008/jms-sdk-go/internal/iocontext"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Debug   bool
	Quiet   bool
	Compact bool
	JQ      string
	Profile string
	Timeout time.Duration
	NoCache bool
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call. Tests depend on
// this reset to get clean state; any code that reads flags outside of a
// command's RunE is reading stale data from the previous Execute() call.
var flags = rootFlags{
	Timeout: api.DefaultTimeout,
}

func parseBoolEnv(key string) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return false
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// loadJMSEnv loads environment variables from ~/.jms/.env if the file
// exists. Variables already set in the environment are not overwritten, so
// explicit exports always take precedence.
func loadJMSEnv() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	path := filepath.Join(home, ".jms", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// Auto-load credentials from ~/.jms/.env when present. This runs before
	// the flag-default reset so JMS_ENDPOINT, JMS_CREDENTIALS_DIR, and other
	// env-driven defaults pick up the values.
	loadJMSEnv()

	// Reset flags to defaults for each execution. This is critical for test
	// isolation; see the invariant comment on the flags declaration above.
	flags = rootFlags{
		Timeout: api.DefaultTimeout,
		NoCache: parseBoolEnv("JMS_NO_CACHE"),
		Profile: strings.TrimSpace(os.Getenv("JMS_PROFILE")),
	}

	root := &cobra.Command{
		Use:                "jms",
		Short:              "CLI for the JumpServer access management service",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if flags.JQ != "" {
				flags.JQ = filter.NormalizeExpression(flags.JQ)
			}

			ioStreams := iocontext.DefaultIO()
			if flags.Quiet {
				ioStreams.ErrOut = io.Discard
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debug.SetupLogger(flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)

			if flags.Timeout <= 0 {
				return fmt.Errorf("--timeout must be positive")
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-error output to stderr")
	root.PersistentFlags().BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	root.PersistentFlags().StringVar(&flags.JQ, "jq", "", "JQ expression to filter JSON output")
	root.PersistentFlags().StringVar(&flags.Profile, "profile", flags.Profile, "Named credential profile to use (env JMS_PROFILE)")
	root.PersistentFlags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	root.PersistentFlags().BoolVar(&flags.NoCache, "no-cache", flags.NoCache, "Bypass the local response cache (env JMS_NO_CACHE)")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newTerminalCmd())
	root.AddCommand(newAssetsCmd())
	root.AddCommand(newAuditCmd())
	root.AddCommand(newAPICmd())
	root.AddCommand(newVersionCmd())

	err := root.ExecuteContext(ctx)
	if err != nil {
		var handled *handledError
		if !errors.As(err, &handled) {
			// Cobra-level errors (unknown command, bad flags) bypass RunE.
			_, _ = fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	return err
}
