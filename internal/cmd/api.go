package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
)

func newAPICmd() *cobra.Command {
	var (
		method     string
		pk         string
		jsonBody   string
		inputFile  string
		query      []string
		headers    []string
		noAuth     bool
		silent     bool
		listRoutes bool
	)

	cmd := &cobra.Command{
		Use:     "api <operation>",
		Aliases: []string{"ap"},
		Short:   "Call any named route directly",
		Long: `Call any named route of the access management service directly.

Operations are the symbolic names from the route table (run with an unknown
name to see the fallback behavior). The request is signed with the active
credential unless --no-auth is set.`,
		Example: `  # Send a heartbeat by hand
  jms api terminal-heartbeat -X POST

  # Resolve a parameterized route
  jms api system-user-auth-info --pk 7

  # Inline JSON body
  jms api send-proxy-log -X POST -d '{"username":"alice","hostname":"web01"}'

  # Read body from stdin
  cat body.json | jms api send-proxy-log -X POST -i -

  # Filter the response
  jms api my-profile --jq '.username'`,
		Args: cobra.RangeArgs(0, 1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if listRoutes {
				client, _, err := newClient()
				if err != nil {
					return err
				}
				return printJSON(cmd, routeNames(client))
			}
			if len(args) != 1 {
				return fmt.Errorf("requires exactly one operation name (or --list)")
			}
			opName := args[0]

			m, err := api.ParseMethod(method)
			if err != nil {
				return err
			}
			if jsonBody != "" && inputFile != "" {
				return fmt.Errorf("cannot use both --body and --input flags")
			}

			var body any
			switch {
			case jsonBody != "":
				body = json.RawMessage(jsonBody)
			case inputFile == "-":
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read body from stdin: %w", err)
				}
				body = json.RawMessage(data)
			case inputFile != "":
				data, err := os.ReadFile(inputFile)
				if err != nil {
					return fmt.Errorf("failed to read --input %q: %w", inputFile, err)
				}
				body = json.RawMessage(data)
			}

			queryMap, err := parseKeyValues(query, "--query")
			if err != nil {
				return err
			}
			headerMap, err := parseKeyValues(headers, "--header")
			if err != nil {
				return err
			}

			client, _, err := newClient()
			if err != nil {
				return err
			}

			opts := &api.CallOptions{
				Body:    body,
				Query:   queryMap,
				Headers: headerMap,
				NoAuth:  noAuth,
			}
			if pk != "" {
				opts.PK = pk
			}

			result, err := client.Call(cmd.Context(), m, opName, opts)
			if err != nil {
				return err
			}
			if result.Degraded() {
				return fmt.Errorf("service unreachable or responded with a gateway error")
			}

			if silent {
				return nil
			}
			payload := map[string]any{
				"status": result.StatusCode,
				"body":   result.Body.Raw(),
			}
			return printJSON(cmd, payload)
		}),
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method: GET, POST, PUT, PATCH")
	cmd.Flags().StringVar(&pk, "pk", "", "Primary key substituted into parameterized routes")
	cmd.Flags().StringVarP(&jsonBody, "body", "d", "", "Inline JSON request body")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read JSON body from file ('-' for stdin)")
	cmd.Flags().StringArrayVarP(&query, "query-param", "q", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header as key=value (repeatable)")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "Skip request signing")
	cmd.Flags().BoolVar(&silent, "silent", false, "Suppress response output")
	cmd.Flags().BoolVar(&listRoutes, "list", false, "List the known operation names and exit")

	return cmd
}

// parseKeyValues splits repeated key=value flags into a map.
func parseKeyValues(pairs []string, flagName string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%s %q is invalid: want key=value", flagName, pair)
		}
		m[strings.TrimSpace(key)] = value
	}
	return m, nil
}

// routeNames returns the known operation names, sorted, for help output.
func routeNames(client *api.Client) []string {
	names := client.Routes().Names()
	sort.Strings(names)
	return names
}
