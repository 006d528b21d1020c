package analysis

import (
	"encoding/json"
	"fmt"
)

// ErrorAliases are the accepted keys for the error list, in priority order.
var ErrorAliases = []string{"errors", "issues", "error"}

// SuggestionAliases are the accepted keys for the suggestion list, in
// priority order.
var SuggestionAliases = []string{"suggestions", "hints", "suggestion"}

// Result is the canonical analysis report.
type Result struct {
	Summary     string   `json:"summary"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`

	// Malformed is set when the raw record carried none of the recognized
	// list keys. The lists are then empty.
	Malformed bool `json:"malformed,omitempty"`
}

// ErrorCount returns the number of reported errors.
func (r Result) ErrorCount() int { return len(r.Errors) }

// SuggestionCount returns the number of reported suggestions.
func (r Result) SuggestionCount() int { return len(r.Suggestions) }

// Normalize converts a decoded JSON object into a Result.
// It never fails: unrecognized shapes resolve to empty lists.
func Normalize(raw map[string]any) Result {
	var res Result
	if s, ok := raw["summary"].(string); ok {
		res.Summary = s
	}

	errs, errKey := resolve(raw, ErrorAliases)
	sugs, sugKey := resolve(raw, SuggestionAliases)
	res.Errors = errs
	res.Suggestions = sugs
	res.Malformed = !errKey && !sugKey

	return res
}

// NormalizeJSON decodes data and normalizes it. Only invalid JSON is an
// error; a valid document that is not an object yields a Malformed Result.
func NormalizeJSON(data []byte) (Result, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("decode analysis: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Result{Errors: []string{}, Suggestions: []string{}, Malformed: true}, nil
	}
	return Normalize(obj), nil
}

// resolve returns the first alias value that is a list. The second return
// value reports whether any alias key was present at all.
func resolve(raw map[string]any, aliases []string) ([]string, bool) {
	present := false
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		present = true
		if items, ok := asList(v); ok {
			return items, true
		}
	}
	return []string{}, present
}

func asList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, itemText(item))
		}
		return out, true
	default:
		return nil, false
	}
}

func itemText(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
