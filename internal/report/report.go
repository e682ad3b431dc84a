// Package report encodes a run's results into the JSON document the
// upstream grading service consumes: a top-level object with a total
// "score" and a "tests" array, one entry per top-level registry node,
// each carrying the node's own (already redaction-aware) display
// text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/stanford-cs106/grader/internal/outcome"
	"github.com/stanford-cs106/grader/internal/resulttree"
)

// Entry is one element of the "tests" array. Visibility is always
// "visible": per-group redaction already happened inside Output, so
// the grading service's own visibility gate is not in play here.
//
// Score and MaxScore are pointers so the synthetic missing-files
// warning entry can omit both fields entirely.
type Entry struct {
	Score      *outcome.Points `json:"score,omitempty"`
	MaxScore   *outcome.Points `json:"max_score,omitempty"`
	Name       string          `json:"name"`
	Output     string          `json:"output"`
	Visibility string          `json:"visibility"`
}

// Report is the full JSON document written to the autograder's output
// file.
type Report struct {
	Score outcome.Points `json:"score"`
	Tests []Entry        `json:"tests"`
}

const missingFilesWarningName = "Warning: Not all required files submitted."

// Build assembles a Report from the top-level results of a run. When
// missingFiles is non-empty, a synthetic warning entry naming the
// missing files is prepended ahead of every ordinary test entry.
func Build(results []resulttree.Result, missingFiles []string) Report {
	r := Report{Tests: make([]Entry, 0, len(results)+1)}
	if len(missingFiles) > 0 {
		r.Tests = append(r.Tests, Entry{
			Name:       missingFilesWarningName,
			Output:     missingFilesWarningText(missingFiles),
			Visibility: "visible",
		})
	}
	for _, result := range results {
		score := result.Score()
		earned, possible := score.Earned, score.Possible
		r.Score += earned
		r.Tests = append(r.Tests, Entry{
			Score:      &earned,
			MaxScore:   &possible,
			Name:       result.Name(),
			Output:     result.DisplayText(),
			Visibility: "visible",
		})
	}
	return r
}

// missingFilesWarningText renders the missing-files list: a single
// sentence for exactly one file, one filename per line otherwise.
func missingFilesWarningText(missingFiles []string) string {
	if len(missingFiles) == 1 {
		return fmt.Sprintf("You did not submit %s, so some tests could not be run.", missingFiles[0])
	}
	return "You did not submit the following required files, so some tests could not be run:\n" +
		strings.Join(missingFiles, "\n")
}

// Encode writes r as indented JSON to w. The indentation keeps the
// file diffable by eye in a terminal during debugging.
func Encode(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
