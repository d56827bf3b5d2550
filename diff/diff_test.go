package diff

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestLinesIdenticalTexts(t *testing.T) {
	text := "COPY moves data\nbetween tables and files\n"
	for _, line := range Lines(text, text) {
		if line.Kind != LineEqual {
			t.Errorf("line %q kind = %d, want equal", line.Text, line.Kind)
		}
	}
}

func TestLinesChangedLine(t *testing.T) {
	a := "HELP\nHELP10\n"
	b := "HELP\nHELP11\n"

	got := Lines(a, b)
	want := []Line{
		{Kind: LineEqual, Text: "HELP"},
		{Kind: LineDeleted, Text: "HELP10"},
		{Kind: LineAdded, Text: "HELP11"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lines = %v, want %v", got, want)
	}
}

func TestSideBySide(t *testing.T) {
	left, right := SideBySide("HELP\nHELP10\n", "HELP\nHELP11\n")

	wantLeft := []Line{
		{Kind: LineEqual, Text: "HELP"},
		{Kind: LineDeleted, Text: "HELP10"},
	}
	wantRight := []Line{
		{Kind: LineEqual, Text: "HELP"},
		{Kind: LineAdded, Text: "HELP11"},
	}
	if !reflect.DeepEqual(left, wantLeft) {
		t.Errorf("left = %v, want %v", left, wantLeft)
	}
	if !reflect.DeepEqual(right, wantRight) {
		t.Errorf("right = %v, want %v", right, wantRight)
	}
}

func TestCompareIdenticalTrees(t *testing.T) {
	help := map[string]map[string]string{
		"10": {"COPY": "same", "ABORT": "same too"},
		"11": {"COPY": "same", "ABORT": "same too"},
	}

	cmp := Compare([]string{"10", "11"}, help)
	if len(cmp.Changed) != 0 {
		t.Errorf("Changed = %v, want none", cmp.Changed)
	}
}

func TestCompareDetectsChangesAndMissingTopics(t *testing.T) {
	help := map[string]map[string]string{
		"10": {"COPY": "old copy", "ABORT": "same"},
		"11": {"COPY": "new copy", "ABORT": "same", "MERGE": "merge is new"},
	}

	cmp := Compare([]string{"10", "11"}, help)

	want := []string{"COPY", "MERGE"}
	if !reflect.DeepEqual(cmp.Changed, want) {
		t.Errorf("Changed = %v, want %v", cmp.Changed, want)
	}
	if cmp.Texts["MERGE"]["10"] != "" {
		t.Errorf("missing topic should read as empty, got %q", cmp.Texts["MERGE"]["10"])
	}
	if cmp.Texts["COPY"]["11"] != "new copy" {
		t.Errorf("Texts[COPY][11] = %q", cmp.Texts["COPY"]["11"])
	}
}

func TestCompareThreeVersions(t *testing.T) {
	help := map[string]map[string]string{
		"10": {"COPY": "v10"},
		"11": {"COPY": "v10"},
		"12": {"COPY": "v12"},
	}

	cmp := Compare([]string{"10", "11", "12"}, help)
	if !reflect.DeepEqual(cmp.Changed, []string{"COPY"}) {
		t.Errorf("Changed = %v, want [COPY]", cmp.Changed)
	}
}

func TestWriteMarkdown(t *testing.T) {
	cmp := Compare([]string{"10", "11"}, map[string]map[string]string{
		"10": {"COPY": "HELP\nHELP10\n"},
		"11": {"COPY": "HELP\nHELP11\n"},
	})

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, cmp); err != nil {
		t.Fatalf("write markdown: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"# Help Comparison", "## COPY", "- HELP10", "+ HELP11"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteMarkdownNoChanges(t *testing.T) {
	cmp := Compare([]string{"10", "11"}, map[string]map[string]string{
		"10": {"COPY": "same"},
		"11": {"COPY": "same"},
	})

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, cmp); err != nil {
		t.Fatalf("write markdown: %v", err)
	}
	if !strings.Contains(buf.String(), "No differences found.") {
		t.Errorf("report should state no differences:\n%s", buf.String())
	}
}
