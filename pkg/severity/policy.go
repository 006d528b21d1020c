// Package severity maps an analysis result to the LED command shown on the
// device.
//
// The rule is evaluated in priority order, first match wins:
//
//  1. any error            -> RED (suggestions are ignored)
//  2. more than one suggestion -> YELLOW
//  3. otherwise            -> GREEN
//
// Evaluate is total and pure. Every Result, including the zero value,
// yields exactly one command.
package severity

import (
	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/command"
)

// YellowThreshold is the suggestion count above which a clean result is
// shown as YELLOW.
const YellowThreshold = 1

// Decision is the outcome of evaluating a result, with the counts that
// produced it.
type Decision struct {
	Command         command.Command `json:"command"`
	ErrorCount      int             `json:"errors"`
	SuggestionCount int             `json:"suggestions"`
}

// Evaluate returns the command for res.
func Evaluate(res analysis.Result) command.Command {
	return Decide(res).Command
}

// Decide evaluates res and keeps the inputs for logging.
func Decide(res analysis.Result) Decision {
	d := Decision{
		ErrorCount:      res.ErrorCount(),
		SuggestionCount: res.SuggestionCount(),
	}

	switch {
	case d.ErrorCount > 0:
		d.Command = command.Red
	case d.SuggestionCount > YellowThreshold:
		d.Command = command.Yellow
	default:
		d.Command = command.Green
	}
	return d
}

// Failure is the command shown when the analysis itself failed.
func Failure() command.Command {
	return command.Red
}
