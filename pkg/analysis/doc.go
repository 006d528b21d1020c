// Package analysis turns the report returned by the code analysis service
// into a canonical Result.
//
// The service is a hosted language model. Its output is loosely shaped: the
// list of errors may arrive as "errors", "issues" or "error", and the list
// of suggestions as "suggestions", "hints" or "suggestion". Normalize is
// the single place where those aliases are resolved. Everything downstream
// (the severity policy, the history store, the HTTP API) only ever sees a
// Result.
//
// # Alias Resolution
//
// For each list, aliases are tried in a fixed priority order. The first
// alias whose value is present and is a JSON array wins. Values of any
// other shape are skipped. When no alias yields an array the list is
// empty. A record that carries none of the recognized keys at all is
// flagged Malformed, but still normalizes to a usable Result.
//
// # Analyzer
//
// Analyzer is the interface to the external service. GenAIAnalyzer is the
// production implementation backed by the Google GenAI SDK.
package analysis
