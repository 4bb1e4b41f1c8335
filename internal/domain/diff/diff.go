// Package diff produces line-oriented comparisons between two content
// snapshots, used by the version-compare view and the restore preview.
package diff

import "strings"

type Kind string

const (
	KindUnchanged Kind = "unchanged"
	KindAdded     Kind = "added"
	KindRemoved   Kind = "removed"
)

// Line is one row of a diff. OldNumber is the 1-based position in the old
// text (zero for added lines); NewNumber the position in the new text (zero
// for removed lines).
type Line struct {
	Kind      Kind   `json:"kind"`
	Content   string `json:"content"`
	OldNumber int    `json:"old_number,omitempty"`
	NewNumber int    `json:"new_number,omitempty"`
}

// Compute walks both line sequences with two cursors. Equal lines advance
// both. On a mismatch, the old line is emitted as removed if it never
// reappears in the remaining new suffix; otherwise the new line is emitted
// as added. This is greedy and not minimal-edit-distance: heavily reordered
// input can produce larger diffs than an LCS would, in exchange for a
// straight linear walk with suffix scans only on mismatches.
func Compute(oldText, newText string) []Line {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	result := make([]Line, 0, max(len(oldLines), len(newLines)))
	oldIdx, newIdx := 0, 0

	for oldIdx < len(oldLines) || newIdx < len(newLines) {
		switch {
		case oldIdx >= len(oldLines):
			result = append(result, Line{Kind: KindAdded, Content: newLines[newIdx], NewNumber: newIdx + 1})
			newIdx++
		case newIdx >= len(newLines):
			result = append(result, Line{Kind: KindRemoved, Content: oldLines[oldIdx], OldNumber: oldIdx + 1})
			oldIdx++
		case oldLines[oldIdx] == newLines[newIdx]:
			result = append(result, Line{
				Kind:      KindUnchanged,
				Content:   oldLines[oldIdx],
				OldNumber: oldIdx + 1,
				NewNumber: newIdx + 1,
			})
			oldIdx++
			newIdx++
		case !contains(newLines[newIdx:], oldLines[oldIdx]):
			result = append(result, Line{Kind: KindRemoved, Content: oldLines[oldIdx], OldNumber: oldIdx + 1})
			oldIdx++
		default:
			result = append(result, Line{Kind: KindAdded, Content: newLines[newIdx], NewNumber: newIdx + 1})
			newIdx++
		}
	}

	return result
}

// splitLines maps "" to no lines at all; any trailing content without a
// final newline still counts as one line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func contains(lines []string, target string) bool {
	for _, l := range lines {
		if l == target {
			return true
		}
	}
	return false
}
