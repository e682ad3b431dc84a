package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanford-cs106/grader/internal/outcome"
	"github.com/stanford-cs106/grader/internal/resulttree"
)

func TestBuildSumsScoreAcrossTopLevelResults(t *testing.T) {
	a := resulttree.NewSingleResult(outcome.Pass, "", 5, "Warmup")
	b := resulttree.NewSingleResult(outcome.Fail, "nope", 5, "EdgeCases")

	rep := Build([]resulttree.Result{a, b}, nil)
	assert.Equal(t, outcome.Points(5), rep.Score)
	require.Len(t, rep.Tests, 2)
	assert.Equal(t, "Warmup", rep.Tests[0].Name)
	assert.Equal(t, "visible", rep.Tests[0].Visibility)
	require.NotNil(t, rep.Tests[1].MaxScore)
	assert.Equal(t, outcome.Points(5), *rep.Tests[1].MaxScore)
}

func TestEncodeProducesExpectedJSONShape(t *testing.T) {
	a := resulttree.NewSingleResult(outcome.Pass, "", 2, "addition works")
	rep := Build([]resulttree.Result{a}, nil)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, rep))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(2), decoded["score"])
	tests, ok := decoded["tests"].([]any)
	require.True(t, ok)
	require.Len(t, tests, 1)
	entry := tests[0].(map[string]any)
	assert.Equal(t, "addition works", entry["name"])
	assert.Equal(t, "visible", entry["visibility"])
}

func TestBuildPrependsWarningEntryWhenFilesMissing(t *testing.T) {
	a := resulttree.NewSingleResult(outcome.Pass, "", 2, "Warmup")

	rep := Build([]resulttree.Result{a}, []string{"PriorityQueue.cpp"})
	require.Len(t, rep.Tests, 2)
	assert.Equal(t, "Warning: Not all required files submitted.", rep.Tests[0].Name)
	assert.Nil(t, rep.Tests[0].Score)
	assert.Nil(t, rep.Tests[0].MaxScore)
	assert.Contains(t, rep.Tests[0].Output, "PriorityQueue.cpp")
	assert.Equal(t, "Warmup", rep.Tests[1].Name)
}

func TestBuildWarningListsMultipleMissingFilesOnePerLine(t *testing.T) {
	rep := Build(nil, []string{"A.cpp", "B.cpp"})
	require.Len(t, rep.Tests, 1)
	assert.Contains(t, rep.Tests[0].Output, "A.cpp\nB.cpp")
}

func TestBuildWholeReportShape(t *testing.T) {
	passed := resulttree.NewSingleResult(outcome.Pass, "", 2, "Warmup")

	got := Build([]resulttree.Result{passed}, nil)

	two := outcome.Points(2)
	want := Report{
		Score: 2,
		Tests: []Entry{{
			Score:      &two,
			MaxScore:   &two,
			Name:       "Warmup",
			Output:     "1 / 1 Test Passed.",
			Visibility: "visible",
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}
