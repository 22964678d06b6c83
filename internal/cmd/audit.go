package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
)

// newAuditCmd returns the audit command with subcommands
func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report session and command audit records",
	}

	cmd.AddCommand(newAuditSessionStartCmd())
	cmd.AddCommand(newAuditSessionFinishCmd())
	cmd.AddCommand(newAuditCommandCmd())

	return cmd
}

// parseAuditTime accepts the wire datetime layout or RFC3339, defaulting to
// now when empty.
func parseAuditTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want '2006-01-02 15:04:05' or RFC3339)", value)
}

// newAuditSessionStartCmd creates the audit session-start command
func newAuditSessionStartCmd() *cobra.Command {
	var (
		log       api.ProxyLog
		startedAt string
		failed    bool
	)

	cmd := &cobra.Command{
		Use:     "session-start",
		Short:   "Report a proxied session start, printing the new session id",
		Example: `  jms audit session-start --user alice --asset web01 --ip 10.0.0.7 --system-user root`,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if log.Username == "" {
				return fmt.Errorf("--user is required")
			}
			if log.Hostname == "" {
				return fmt.Errorf("--asset is required")
			}
			start, err := parseAuditTime(startedAt)
			if err != nil {
				return err
			}
			log.DateStart = start
			log.WasFailed = failed
			if log.Name == "" {
				log.Name = log.Username
			}

			svc, _, err := newAppService()
			if err != nil {
				return err
			}
			id, err := svc.SendProxyLog(cmd.Context(), log)
			if err != nil {
				return err
			}
			if id == 0 {
				return fmt.Errorf("session record rejected by the server")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		}),
	}

	cmd.Flags().StringVar(&log.Username, "user", "", "Authenticated username")
	cmd.Flags().StringVar(&log.Name, "name", "", "Display name (defaults to --user)")
	cmd.Flags().StringVar(&log.Hostname, "asset", "", "Asset hostname")
	cmd.Flags().StringVar(&log.IP, "ip", "", "Asset IP address")
	cmd.Flags().StringVar(&log.SystemUser, "system-user", "", "System user logged in as")
	cmd.Flags().StringVar(&log.LoginType, "login-type", "ST", "Login type: ST (ssh) or WT (web)")
	cmd.Flags().StringVar(&startedAt, "started-at", "", "Session start time (defaults to now)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Mark the login attempt as failed")

	return cmd
}

// newAuditSessionFinishCmd creates the audit session-finish command
func newAuditSessionFinishCmd() *cobra.Command {
	var (
		finishedAt string
		failed     bool
	)

	cmd := &cobra.Command{
		Use:   "session-finish <session-id>",
		Short: "Mark a proxied session as finished",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil || id <= 0 {
				return fmt.Errorf("invalid session id %q: must be a positive integer", args[0])
			}
			finish, err := parseAuditTime(finishedAt)
			if err != nil {
				return err
			}

			svc, _, err := newAppService()
			if err != nil {
				return err
			}
			ok, err := svc.FinishProxyLog(cmd.Context(), id, finish, failed)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("server did not accept the finish record for session %d", id)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session %d finished.\n", id)
			return nil
		}),
	}

	cmd.Flags().StringVar(&finishedAt, "finished-at", "", "Session finish time (defaults to now)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Mark the session as failed")

	return cmd
}

// newAuditCommandCmd creates the audit command command
func newAuditCommandCmd() *cobra.Command {
	var (
		sessionID  int
		commandNo  int
		command    string
		outputFile string
		at         string
	)

	cmd := &cobra.Command{
		Use:   "command",
		Short: "Submit one executed command with its output for audit",
		Example: `  # Command output from a file
  jms audit command --session 42 --no 1 --cmd 'ls -la' --output out.txt

  # Command output from stdin
  cat out.txt | jms audit command --session 42 --no 1 --cmd 'ls -la' --output -`,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if sessionID <= 0 {
				return fmt.Errorf("--session is required")
			}
			if command == "" {
				return fmt.Errorf("--cmd is required")
			}
			when, err := parseAuditTime(at)
			if err != nil {
				return err
			}

			var output []byte
			switch outputFile {
			case "":
			case "-":
				output, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read output from stdin: %w", err)
				}
			default:
				output, err = os.ReadFile(outputFile)
				if err != nil {
					return fmt.Errorf("failed to read --output %q: %w", outputFile, err)
				}
			}

			svc, _, err := newAppService()
			if err != nil {
				return err
			}
			ok, err := svc.SendCommandLog(cmd.Context(), api.CommandLog{
				ProxyLogID: sessionID,
				CommandNo:  commandNo,
				Command:    command,
				Output:     output,
				Timestamp:  when,
			})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("server did not accept the command record")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Command recorded.")
			return nil
		}),
	}

	cmd.Flags().IntVar(&sessionID, "session", 0, "Session id from 'audit session-start'")
	cmd.Flags().IntVar(&commandNo, "no", 0, "Command sequence number within the session")
	cmd.Flags().StringVar(&command, "cmd", "", "Command line that was executed")
	cmd.Flags().StringVar(&outputFile, "output", "", "File with the captured output ('-' for stdin)")
	cmd.Flags().StringVar(&at, "at", "", "Command time (defaults to now)")

	return cmd
}
