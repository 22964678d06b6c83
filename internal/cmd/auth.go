package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
	"github.com/yyqs2008/jms-sdk-go/internal/config"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage access key credentials",
		Long:    "Configure and manage JumpServer access key credentials stored securely in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

// loadAuthEnvFile reads a dotenv file for auth login.
func loadAuthEnvFile(path string) (map[string]string, error) {
	envVars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --env-file %q: %w", path, err)
	}
	return envVars, nil
}

// newAuthLoginCmd creates the auth login command
func newAuthLoginCmd() *cobra.Command {
	var (
		endpoint string
		keyID    string
		secret   string
		appName  string
		profile  string
		envFile  string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save access key credentials",
		Long: strings.TrimSpace(`
Save JumpServer access key credentials securely to your OS keychain.

You'll need:
- Endpoint: Your JumpServer instance URL (e.g. https://jms.example.com)
- Access Key: An access key id/secret pair issued by the service
  (for terminal components, obtained via 'jms terminal register')

Optional:
- Profile: Save multiple instances and switch between them
`),
		Example: strings.TrimSpace(`
  # Save credentials
  jms auth login --url https://jms.example.com --key-id KEY_ID --secret SECRET

  # Save to a named profile without verifying against the server
  jms auth login --url https://jms.example.com --key-id KEY_ID --secret SECRET --profile staging --no-verify

  # Load credentials from a .env file
  jms auth login --env-file .env
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				envVars, err := loadAuthEnvFile(envFile)
				if err != nil {
					return err
				}
				if endpoint == "" {
					endpoint = strings.TrimSpace(envVars["JMS_ENDPOINT"])
				}
				if keyID == "" {
					keyID = strings.TrimSpace(envVars["JMS_ACCESS_KEY_ID"])
				}
				if secret == "" {
					secret = strings.TrimSpace(envVars["JMS_ACCESS_KEY_SECRET"])
				}
				if appName == "" {
					appName = strings.TrimSpace(envVars["JMS_APP_NAME"])
				}
				if !cmd.Flags().Changed("profile") {
					if envProfile := strings.TrimSpace(envVars["JMS_PROFILE"]); envProfile != "" {
						profile = envProfile
					}
				}
			}

			if endpoint == "" {
				return fmt.Errorf("--url is required")
			}
			if keyID == "" {
				return fmt.Errorf("--key-id is required")
			}
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			endpoint = strings.TrimSuffix(endpoint, "/")

			p := config.Profile{
				Endpoint:        endpoint,
				AccessKeyID:     keyID,
				AccessKeySecret: secret,
				AppName:         appName,
			}

			if !noVerify {
				svc := api.NewAppService(appName, endpoint)
				svc.HTTP.Timeout = flags.Timeout
				cred, err := api.NewKeyPair(keyID, secret)
				if err != nil {
					return err
				}
				svc.SetCredential(cred)
				ok, err := svc.CheckAuth(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to verify credentials: %w", err)
				}
				if !ok {
					return fmt.Errorf("server rejected the access key (use --no-verify to save anyway)")
				}
			}

			if profile != "" {
				if err := config.SaveProfile(profile, p); err != nil {
					return fmt.Errorf("failed to save credentials: %w", err)
				}
				if err := config.SetCurrentProfile(profile); err != nil {
					return fmt.Errorf("failed to select profile: %w", err)
				}
			} else if err := config.Save(p); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Credentials saved successfully!")
			_, _ = fmt.Fprintf(out, "  Endpoint: %s\n", endpoint)
			_, _ = fmt.Fprintf(out, "  Access Key ID: %s\n", keyID)
			if profile != "" {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", profile)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&endpoint, "url", "", "JumpServer endpoint URL")
	cmd.Flags().StringVar(&keyID, "key-id", "", "Access key id")
	cmd.Flags().StringVar(&secret, "secret", "", "Access key secret")
	cmd.Flags().StringVar(&appName, "app-name", "", "Application name reported in the User-Agent")
	cmd.Flags().StringVar(&profile, "profile", "", "Save credentials under a named profile")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load credentials from a dotenv file")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip verifying the key pair against the server")

	return cmd
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current authentication configuration",
		Long:  "Display the currently saved credentials (the access key secret is masked).",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			envEndpoint := strings.TrimSpace(os.Getenv("JMS_ENDPOINT"))
			envKeyID := strings.TrimSpace(os.Getenv("JMS_ACCESS_KEY_ID"))
			usingEnv := envEndpoint != "" || envKeyID != ""

			profile, err := loadProfile()
			if err != nil {
				if err == config.ErrNotConfigured {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'jms auth login' to configure credentials.")
					return nil
				}
				return fmt.Errorf("failed to load credentials: %w", err)
			}

			var profileName string
			if !usingEnv && flags.Profile == "" {
				if current, err := config.CurrentProfile(); err == nil {
					profileName = current
				}
			} else if flags.Profile != "" {
				profileName = flags.Profile
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authenticated")
			_, _ = fmt.Fprintf(out, "  Endpoint: %s\n", profile.Endpoint)
			_, _ = fmt.Fprintf(out, "  Access Key ID: %s\n", profile.AccessKeyID)
			_, _ = fmt.Fprintf(out, "  Access Key Secret: %s\n", maskToken(profile.AccessKeySecret))
			if profile.AppName != "" {
				_, _ = fmt.Fprintf(out, "  App Name: %s\n", profile.AppName)
			}
			if profileName != "" {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", profileName)
			}
			if usingEnv {
				_, _ = fmt.Fprintln(out, "  Source: env")
			}
			return nil
		}),
	}

	return cmd
}

// newAuthLogoutCmd creates the auth logout command
func newAuthLogoutCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove credentials from keychain",
		Long:  "Delete the stored access key credentials from your OS keychain.",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if profile == "" {
				profile = flags.Profile
			}
			if profile != "" {
				if err := config.DeleteProfile(profile); err != nil {
					return fmt.Errorf("failed to remove profile %q: %w", profile, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %q.\n", profile)
				return nil
			}
			if err := config.Delete(); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed.")
			return nil
		}),
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Remove a specific named profile")

	return cmd
}
