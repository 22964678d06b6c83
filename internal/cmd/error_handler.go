package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
	"github.com/yyqs2008/jms-sdk-go/internal/config"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var authErr *api.AuthError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("Not configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: jms auth login\n")
		msg.WriteString("  - Or set JMS_ENDPOINT, JMS_ACCESS_KEY_ID, and JMS_ACCESS_KEY_SECRET\n")

	case errors.As(err, &authErr):
		fmt.Fprintf(&msg, "Authentication failed: %s\n\n", authErr.Reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: jms auth login\n")
		msg.WriteString("  - Verify the access key pair is still valid\n")

	case errors.Is(err, api.ErrAuthenticationRequired):
		msg.WriteString("Authentication required.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: jms auth login\n")
		msg.WriteString("  - Or pass --no-auth for endpoints that allow anonymous access\n")

	case errors.Is(err, api.ErrLoginFailed):
		msg.WriteString("Login rejected by the server.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the username and password\n")
		msg.WriteString("  - Check whether the account is locked or expired\n")

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check if the JumpServer instance is running\n")
		msg.WriteString("  - Verify the endpoint: jms auth status\n")
		msg.WriteString("  - Check your network connection\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the endpoint URL spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}
