package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Result
	}{
		{
			name: "canonical",
			in:   `{"summary":"prints hello","errors":["missing return"],"suggestions":[]}`,
			want: Result{Summary: "prints hello", Errors: []string{"missing return"}, Suggestions: []string{}},
		},
		{
			name: "alias keys",
			in:   `{"issues":[],"hints":["use const","avoid global"]}`,
			want: Result{Errors: []string{}, Suggestions: []string{"use const", "avoid global"}},
		},
		{
			name: "singular aliases",
			in:   `{"error":["e1","e2"],"suggestion":["s1"]}`,
			want: Result{Errors: []string{"e1", "e2"}, Suggestions: []string{"s1"}},
		},
		{
			name: "first alias that is a list wins",
			in:   `{"errors":"not a list","issues":["real"],"error":["ignored"]}`,
			want: Result{Errors: []string{"real"}, Suggestions: []string{}},
		},
		{
			name: "priority order over document order",
			in:   `{"hints":["h"],"suggestions":["s1","s2"]}`,
			want: Result{Errors: []string{}, Suggestions: []string{"s1", "s2"}},
		},
		{
			name: "present but never a list",
			in:   `{"errors":null,"suggestions":{"a":1}}`,
			want: Result{Errors: []string{}, Suggestions: []string{}},
		},
		{
			name: "no recognized fields",
			in:   `{}`,
			want: Result{Errors: []string{}, Suggestions: []string{}, Malformed: true},
		},
		{
			name: "not an object",
			in:   `["errors"]`,
			want: Result{Errors: []string{}, Suggestions: []string{}, Malformed: true},
		},
		{
			name: "non-string items are kept",
			in:   `{"errors":[{"line":3,"msg":"x"},7]}`,
			want: Result{Errors: []string{`{"line":3,"msg":"x"}`, "7"}, Suggestions: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeJSON([]byte(tt.in))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeJSON() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeJSONInvalid(t *testing.T) {
	_, err := NormalizeJSON([]byte(`{"errors": [`))
	assert.Error(t, err)
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	in := []string{"a"}
	res := Normalize(map[string]any{"errors": in})
	res.Errors[0] = "changed"
	assert.Equal(t, "a", in[0])
}

func TestCounts(t *testing.T) {
	res := Result{Errors: []string{"a", "b"}, Suggestions: []string{"c"}}
	assert.Equal(t, 2, res.ErrorCount())
	assert.Equal(t, 1, res.SuggestionCount())
	assert.Equal(t, 0, Result{}.ErrorCount())
}
