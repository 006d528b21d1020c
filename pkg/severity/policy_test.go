package severity

import (
	"fmt"
	"testing"

	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/command"
)

func items(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("item %d", i)
	}
	return out
}

func TestEvaluateGrid(t *testing.T) {
	for errs := 0; errs <= 4; errs++ {
		for sugs := 0; sugs <= 4; sugs++ {
			res := analysis.Result{Errors: items(errs), Suggestions: items(sugs)}

			var want command.Command
			switch {
			case errs > 0:
				want = command.Red
			case sugs > 1:
				want = command.Yellow
			default:
				want = command.Green
			}

			if got := Evaluate(res); got != want {
				t.Errorf("errors=%d suggestions=%d: got %v, want %v", errs, sugs, got, want)
			}
		}
	}
}

func TestEvaluateScenarios(t *testing.T) {
	tests := []struct {
		name string
		json string
		want command.Command
	}{
		{"error present", `{"errors":["missing return"],"suggestions":[]}`, command.Red},
		{"alias form with hints", `{"issues":[],"hints":["use const","avoid global"]}`, command.Yellow},
		{"no recognized fields", `{}`, command.Green},
		{"single suggestion", `{"errors":[],"suggestions":["one"]}`, command.Green},
		{"errors dominate suggestions", `{"error":["x"],"suggestions":["a","b","c"]}`, command.Red},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := analysis.NormalizeJSON([]byte(tt.json))
			if err != nil {
				t.Fatalf("NormalizeJSON: %v", err)
			}
			if got := Evaluate(res); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	res := analysis.Result{Suggestions: items(2)}
	first := Evaluate(res)
	for i := 0; i < 10; i++ {
		if got := Evaluate(res); got != first {
			t.Fatalf("call %d: got %v, first call %v", i, got, first)
		}
	}
	if len(res.Suggestions) != 2 {
		t.Error("Evaluate mutated its input")
	}
}

func TestEvaluateZeroValue(t *testing.T) {
	if got := Evaluate(analysis.Result{}); got != command.Green {
		t.Errorf("Evaluate(zero) = %v, want GREEN", got)
	}
}

func TestDecideKeepsCounts(t *testing.T) {
	d := Decide(analysis.Result{Errors: items(1), Suggestions: items(3)})
	if d.ErrorCount != 1 || d.SuggestionCount != 3 || d.Command != command.Red {
		t.Errorf("Decide() = %+v", d)
	}
}

func TestFailure(t *testing.T) {
	if Failure() != command.Red {
		t.Errorf("Failure() = %v, want RED", Failure())
	}
}
