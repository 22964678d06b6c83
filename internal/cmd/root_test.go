package cmd

import (
	"context"
	"strings"
	"testing"
)

func TestExecute_Help(t *testing.T) {
	clearCredentialEnv(t)
	output, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() with --help failed: %v", err)
	}
	for _, want := range []string{"jms", "auth", "terminal", "assets", "audit", "api", "version"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	clearCredentialEnv(t)
	err := Execute(context.Background(), []string{"frobnicate"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if ExitCode(err) != exitUsage {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), exitUsage)
	}
}

func TestExecute_FlagsResetBetweenRuns(t *testing.T) {
	clearCredentialEnv(t)
	withEmptyKeyring(t)

	if _, err := execute(t, "--compact-json", "auth", "status"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !flags.Compact {
		t.Fatal("compact flag not applied on first run")
	}

	if _, err := execute(t, "auth", "status"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if flags.Compact {
		t.Error("compact flag leaked into second run")
	}
}

func TestExecute_InvalidTimeout(t *testing.T) {
	clearCredentialEnv(t)
	err := Execute(context.Background(), []string{"--timeout", "-1s", "auth", "status"})
	if err == nil {
		t.Fatal("expected error for negative timeout")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error = %v, want mention of timeout", err)
	}
}
