package harvest

import (
	"regexp"
	"slices"
	"strings"
)

// helpHeader is the banner line psql prints above the topic columns.
const helpHeader = "Available help:"

var spaceRun = regexp.MustCompile(` {2,}`)

// ParseTopics reshapes psql's columnar help listing into a sorted,
// deduplicated topic list. Runs of two or more spaces separate columns,
// so they become line breaks; blank lines and the banner are dropped.
// Topics keep internal single spaces ("ALTER TABLE" stays one topic).
func ParseTopics(raw string) []string {
	reshaped := spaceRun.ReplaceAllString(raw, "\n")

	var topics []string
	for line := range strings.Lines(reshaped) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" || line == helpHeader {
			continue
		}
		topics = append(topics, line)
	}

	slices.Sort(topics)
	return slices.Compact(topics)
}
