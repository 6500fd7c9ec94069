// Package output parses the structured responses the pipeline expects from a
// model. Parsing is schema-validated and completely decoupled from prompt
// composition: a response that doesn't match the schema is a GenerationError,
// never a silent retry.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"text2sql-be/pkg/sqlrag"
)

type tableNamesPayload struct {
	TableNames []string `json:"table_names"`
}

type queriesPayload struct {
	Queries []string `json:"queries"`
}

// ParseTableNames extracts {"table_names": [...]} from a model response.
func ParseTableNames(raw string) ([]string, error) {
	var payload tableNamesPayload
	if err := unmarshalLoose(raw, &payload); err != nil {
		return nil, &sqlrag.GenerationError{Raw: raw, Err: err}
	}
	if payload.TableNames == nil {
		return nil, &sqlrag.GenerationError{Raw: raw, Err: fmt.Errorf("missing required field %q", "table_names")}
	}
	return trimNonEmpty(payload.TableNames), nil
}

// ParseQueries extracts {"queries": [...]} from a model response.
func ParseQueries(raw string) ([]string, error) {
	var payload queriesPayload
	if err := unmarshalLoose(raw, &payload); err != nil {
		return nil, &sqlrag.GenerationError{Raw: raw, Err: err}
	}
	if payload.Queries == nil {
		return nil, &sqlrag.GenerationError{Raw: raw, Err: fmt.Errorf("missing required field %q", "queries")}
	}
	queries := trimNonEmpty(payload.Queries)
	if len(queries) == 0 {
		return nil, &sqlrag.GenerationError{Raw: raw, Err: fmt.Errorf("%q must contain at least one statement", "queries")}
	}
	return queries, nil
}

// unmarshalLoose tolerates markdown code fences and leading prose around the
// JSON object, which chat models add even when told not to.
func unmarshalLoose(raw string, v interface{}) error {
	candidate := stripFences(raw)

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object found in response")
	}

	return json.Unmarshal([]byte(candidate[start:end+1]), v)
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
