// Package filter applies jq expressions to decoded JSON output.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Apply runs a jq expression against data. An empty expression returns the
// data unchanged. A single jq result is returned bare; multiple results come
// back as a slice.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}

	query, err := gojq.Parse(NormalizeExpression(expression))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	results, err := runQuery(query, data)
	if err != nil {
		return nil, err
	}
	return collapseQueryResults(results), nil
}

// ApplyToValue runs a jq expression against any JSON-marshalable value.
// The value is round-tripped through encoding/json first: gojq only accepts
// nil, bool, numbers, string, []any and map[string]any, so typed structs
// must be flattened before querying.
func ApplyToValue(v any, expression string) (any, error) {
	if expression == "" {
		return v, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("filter input does not marshal: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("filter input is not valid JSON: %w", err)
	}
	return Apply(data, expression)
}

// ApplyToJSON runs a jq expression against raw JSON bytes and re-encodes the
// result with indentation.
func ApplyToJSON(raw []byte, expression string) ([]byte, error) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("filter input is not valid JSON: %w", err)
	}
	filtered, err := Apply(data, expression)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(filtered, "", "  ")
}

func runQuery(query *gojq.Query, data any) ([]any, error) {
	iter := query.Run(data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func collapseQueryResults(results []any) any {
	if len(results) == 1 {
		return results[0]
	}
	return results
}
