package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mliu/prompthub/internal/domain/diff"
)

func kinds(lines []diff.Line) []diff.Kind {
	out := make([]diff.Kind, len(lines))
	for i, l := range lines {
		out[i] = l.Kind
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want []diff.Line
	}{
		{
			name: "identical inputs are all unchanged",
			old:  "a\nb\nc",
			new:  "a\nb\nc",
			want: []diff.Line{
				{Kind: diff.KindUnchanged, Content: "a", OldNumber: 1, NewNumber: 1},
				{Kind: diff.KindUnchanged, Content: "b", OldNumber: 2, NewNumber: 2},
				{Kind: diff.KindUnchanged, Content: "c", OldNumber: 3, NewNumber: 3},
			},
		},
		{
			name: "empty old emits all added",
			old:  "",
			new:  "a\nb",
			want: []diff.Line{
				{Kind: diff.KindAdded, Content: "a", NewNumber: 1},
				{Kind: diff.KindAdded, Content: "b", NewNumber: 2},
			},
		},
		{
			name: "empty new emits all removed",
			old:  "a\nb",
			new:  "",
			want: []diff.Line{
				{Kind: diff.KindRemoved, Content: "a", OldNumber: 1},
				{Kind: diff.KindRemoved, Content: "b", OldNumber: 2},
			},
		},
		{
			name: "both empty yields empty sequence",
			old:  "",
			new:  "",
			want: []diff.Line{},
		},
		{
			name: "replaced middle line",
			old:  "a\nb\nc",
			new:  "a\nx\nc",
			want: []diff.Line{
				{Kind: diff.KindUnchanged, Content: "a", OldNumber: 1, NewNumber: 1},
				{Kind: diff.KindRemoved, Content: "b", OldNumber: 2},
				{Kind: diff.KindAdded, Content: "x", NewNumber: 2},
				{Kind: diff.KindUnchanged, Content: "c", OldNumber: 3, NewNumber: 3},
			},
		},
		{
			name: "insertion before an old line that reappears later",
			old:  "a\nb",
			new:  "x\na\nb",
			want: []diff.Line{
				{Kind: diff.KindAdded, Content: "x", NewNumber: 1},
				{Kind: diff.KindUnchanged, Content: "a", OldNumber: 1, NewNumber: 2},
				{Kind: diff.KindUnchanged, Content: "b", OldNumber: 2, NewNumber: 3},
			},
		},
		{
			name: "deletion in the middle",
			old:  "a\nb\nc",
			new:  "a\nc",
			want: []diff.Line{
				{Kind: diff.KindUnchanged, Content: "a", OldNumber: 1, NewNumber: 1},
				{Kind: diff.KindRemoved, Content: "b", OldNumber: 2},
				{Kind: diff.KindUnchanged, Content: "c", OldNumber: 3, NewNumber: 2},
			},
		},
		{
			name: "trailing newline counts as a final empty line",
			old:  "a",
			new:  "a\n",
			want: []diff.Line{
				{Kind: diff.KindUnchanged, Content: "a", OldNumber: 1, NewNumber: 1},
				{Kind: diff.KindAdded, Content: "", NewNumber: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diff.Compute(tt.old, tt.new)
			require.Len(t, got, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}

// The walk is greedy, not minimal: a fully reordered input degrades to
// remove-then-add pairs rather than moves. Pin that behavior so an
// algorithm swap shows up as a deliberate test change.
func TestCompute_ReorderedIsNotMinimal(t *testing.T) {
	got := diff.Compute("a\nb", "b\na")
	assert.Equal(t,
		[]diff.Kind{diff.KindAdded, diff.KindUnchanged, diff.KindRemoved},
		kinds(got),
	)
}

func TestCompute_Deterministic(t *testing.T) {
	old, new_ := "a\nb\nc\nd", "a\nc\nb\nd"
	first := diff.Compute(old, new_)
	for range 5 {
		assert.Equal(t, first, diff.Compute(old, new_))
	}
}
