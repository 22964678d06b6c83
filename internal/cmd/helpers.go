package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
	"github.com/yyqs2008/jms-sdk-go/internal/config"
	"github.com/yyqs2008/jms-sdk-go/internal/filter"
	"github.com/yyqs2008/jms-sdk-go/internal/iocontext"
)

// errAlreadyHandled is a sentinel error indicating the error was already
// printed to stderr. Commands wrapped with RunE return a handledError that
// unwraps to this, so Cobra records the failure (for the exit code) without
// printing it again (SilenceErrors is set on the root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
			// Return a handled error so tests can still inspect the original message.
			return &handledError{err: err, exitCode: ExitCode(err)}
		}
		return nil
	}
}

// printJSON renders v to the command's stdout, applying the global --jq
// expression when one is set.
func printJSON(cmd *cobra.Command, v any) error {
	if flags.JQ != "" {
		filtered, err := filter.ApplyToValue(v, flags.JQ)
		if err != nil {
			return fmt.Errorf("jq filter failed: %w", err)
		}
		v = filtered
	}

	enc := json.NewEncoder(iocontext.GetIO(cmd.Context()).Out)
	if !flags.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// maskToken hides all but the last four characters of a secret.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

// loadProfile resolves the active credential profile, honoring --profile.
func loadProfile() (config.Profile, error) {
	if flags.Profile != "" {
		return config.LoadProfile(flags.Profile)
	}
	return config.Load()
}

// newClient builds a signed API client from the active profile.
func newClient() (*api.Client, config.Profile, error) {
	profile, err := loadProfile()
	if err != nil {
		return nil, config.Profile{}, err
	}
	client := api.New(profile.Endpoint, profile.AppName)
	client.HTTP.Timeout = flags.Timeout
	if profile.AccessKeyID != "" {
		cred, err := api.NewKeyPair(profile.AccessKeyID, profile.AccessKeySecret)
		if err != nil {
			return nil, config.Profile{}, err
		}
		client.SetCredential(cred)
	}
	return client, profile, nil
}

// newAppService builds a terminal AppService from the active profile.
func newAppService() (*api.AppService, config.Profile, error) {
	profile, err := loadProfile()
	if err != nil {
		return nil, config.Profile{}, err
	}
	svc := api.NewAppService(profile.AppName, profile.Endpoint)
	svc.HTTP.Timeout = flags.Timeout
	if profile.AccessKeyID != "" {
		cred, err := api.NewKeyPair(profile.AccessKeyID, profile.AccessKeySecret)
		if err != nil {
			return nil, config.Profile{}, err
		}
		svc.SetCredential(cred)
	}
	return svc, profile, nil
}
