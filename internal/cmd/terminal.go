package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
	"github.com/yyqs2008/jms-sdk-go/internal/config"
)

// newTerminalCmd returns the terminal command with subcommands
func newTerminalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "terminal",
		Aliases: []string{"term"},
		Short:   "Register and monitor terminal components",
		Long:    "Register a terminal component (coco, luna) with the access management service and keep its heartbeat alive.",
	}

	cmd.AddCommand(newTerminalRegisterCmd())
	cmd.AddCommand(newTerminalHeartbeatCmd())

	return cmd
}

// newTerminalRegisterCmd creates the terminal register command
func newTerminalRegisterCmd() *cobra.Command {
	var (
		endpoint string
		name     string
		profile  string
		noSave   bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this terminal and obtain an access key",
		Long: strings.TrimSpace(`
Register a terminal component with the service. Registration is unauthenticated;
the server issues an access key pair once an administrator accepts the terminal.

On success the key pair is saved to your OS keychain so later commands can sign
their requests with it.
`),
		Example: strings.TrimSpace(`
  # Register a coco terminal
  jms terminal register --url https://jms.example.com --name coco

  # Print the key without saving it
  jms terminal register --url https://jms.example.com --name coco --no-save
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if endpoint == "" {
				return fmt.Errorf("--url is required")
			}
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			endpoint = strings.TrimSuffix(endpoint, "/")

			svc := api.NewAppService(name, endpoint)
			svc.HTTP.Timeout = flags.Timeout
			key, result, err := svc.Register(cmd.Context())
			if err != nil {
				return err
			}
			if result.Degraded() {
				return fmt.Errorf("service unreachable; check the endpoint and try again")
			}
			if key.ID == "" {
				reason := result.Body.Get("error").Str()
				if reason == "" {
					reason = fmt.Sprintf("HTTP %d", result.StatusCode)
				}
				return fmt.Errorf("registration rejected: %s", reason)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Terminal registered.")
			_, _ = fmt.Fprintf(out, "  Access Key ID: %s\n", key.ID)
			if noSave {
				_, _ = fmt.Fprintf(out, "  Access Key Secret: %s\n", key.Secret)
				return nil
			}

			p := config.Profile{
				Endpoint:        endpoint,
				AccessKeyID:     key.ID,
				AccessKeySecret: key.Secret,
				AppName:         name,
			}
			if profile != "" {
				if err := config.SaveProfile(profile, p); err != nil {
					return fmt.Errorf("failed to save access key: %w", err)
				}
				if err := config.SetCurrentProfile(profile); err != nil {
					return fmt.Errorf("failed to select profile: %w", err)
				}
				_, _ = fmt.Fprintf(out, "  Saved to profile %q.\n", profile)
				return nil
			}
			if err := config.Save(p); err != nil {
				return fmt.Errorf("failed to save access key: %w", err)
			}
			_, _ = fmt.Fprintln(out, "  Saved to keychain.")
			return nil
		}),
	}

	cmd.Flags().StringVar(&endpoint, "url", "", "JumpServer endpoint URL")
	cmd.Flags().StringVar(&name, "name", "", "Terminal name to register as")
	cmd.Flags().StringVar(&profile, "profile", "", "Save the issued key under a named profile")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Print the issued key instead of saving it")

	return cmd
}

// newTerminalHeartbeatCmd creates the terminal heartbeat command
func newTerminalHeartbeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Send a heartbeat for the registered terminal",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			svc, _, err := newAppService()
			if err != nil {
				return err
			}
			ok, err := svc.Heartbeat(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("heartbeat not accepted; the terminal may not be approved yet")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Heartbeat accepted.")
			return nil
		}),
	}

	return cmd
}
