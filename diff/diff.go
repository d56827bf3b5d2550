// Package diff compares harvested help documents across server versions.
//
// The cross-version comparison mirrors the help-file layout: the topic
// universe is the union over the selected versions, a topic missing
// from a version reads as empty text, and a topic counts as changed
// when any selected version's text differs from the first selection.
package diff

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineKind classifies one line of a two-document diff.
type LineKind int

const (
	LineEqual LineKind = iota
	LineDeleted
	LineAdded
)

// Line is one line of diff output.
type Line struct {
	Kind LineKind
	Text string
}

// Lines computes a line-level diff from a to b: equal lines, lines
// deleted from a, lines added in b.
func Lines(a, b string) []Line {
	dmp := diffmatchpatch.New()
	ca, cb, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lineArray)

	var out []Line
	for _, d := range diffs {
		kind := LineEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = LineDeleted
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		}
		for _, text := range splitLines(d.Text) {
			out = append(out, Line{Kind: kind, Text: text})
		}
	}
	return out
}

// SideBySide splits a diff into the two documents' views: the left
// holds equal and deleted lines, the right equal and added lines.
func SideBySide(a, b string) (left, right []Line) {
	for _, line := range Lines(a, b) {
		switch line.Kind {
		case LineEqual:
			left = append(left, line)
			right = append(right, line)
		case LineDeleted:
			left = append(left, line)
		case LineAdded:
			right = append(right, line)
		}
	}
	return left, right
}

func splitLines(chunk string) []string {
	chunk = strings.TrimSuffix(chunk, "\n")
	if chunk == "" {
		return nil
	}
	return strings.Split(chunk, "\n")
}

// Comparison is the outcome of comparing help trees across versions.
type Comparison struct {
	// Versions are the compared versions, in selection order. The first
	// one is the baseline.
	Versions []string

	// Changed lists topics whose text differs across versions, sorted.
	Changed []string

	// Texts holds topic → version → help text for every changed topic.
	// A version missing the topic maps to "".
	Texts map[string]map[string]string
}

// Compare builds the cross-version comparison.
func Compare(versions []string, helpByVersion map[string]map[string]string) *Comparison {
	topicSet := make(map[string]struct{})
	for _, files := range helpByVersion {
		for topic := range files {
			topicSet[topic] = struct{}{}
		}
	}

	topics := make([]string, 0, len(topicSet))
	for topic := range topicSet {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	cmp := &Comparison{
		Versions: versions,
		Texts:    make(map[string]map[string]string),
	}

	for _, topic := range topics {
		texts := make(map[string]string, len(versions))
		for _, v := range versions {
			texts[v] = helpByVersion[v][topic]
		}

		changed := false
		baseline := texts[versions[0]]
		for _, v := range versions[1:] {
			if texts[v] != baseline {
				changed = true
				break
			}
		}
		if changed {
			cmp.Changed = append(cmp.Changed, topic)
			cmp.Texts[topic] = texts
		}
	}
	return cmp
}
