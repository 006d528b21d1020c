package analysis

import (
	"context"
	"errors"
)

// Analysis errors.
var (
	ErrEmptySource    = errors.New("source is empty")
	ErrAnalysisFailed = errors.New("analysis failed")
	ErrMissingAPIKey  = errors.New("analysis API key is required")
)

// Analyzer sends source text to the analysis service and returns its
// normalized report.
type Analyzer interface {
	Analyze(ctx context.Context, source string) (Result, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, source string) (Result, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, source string) (Result, error) {
	return f(ctx, source)
}
