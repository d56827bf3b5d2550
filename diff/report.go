package diff

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// WriteMarkdown renders a comparison as a Markdown report: a summary
// table followed by one diff block per changed topic, each diffing the
// baseline version against the last selected version.
func WriteMarkdown(w io.Writer, cmp *Comparison) error {
	md := markdown.NewMarkdown(w)

	md.H1("Help Comparison")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Baseline", cmp.Versions[0]},
			{"Compared against", joinVersions(cmp.Versions[1:])},
			{"Changed topics", strconv.Itoa(len(cmp.Changed))},
		},
	})
	md.PlainText("")

	if len(cmp.Changed) == 0 {
		md.PlainText("No differences found.")
		return md.Build()
	}

	last := cmp.Versions[len(cmp.Versions)-1]
	for _, topic := range cmp.Changed {
		md.H2(topic)
		md.PlainText("")

		texts := cmp.Texts[topic]
		md.CodeBlocks(markdown.SyntaxHighlightDiff,
			diffBlock(texts[cmp.Versions[0]], texts[last]))
		md.PlainText("")
	}
	return md.Build()
}

func diffBlock(a, b string) string {
	var out string
	for _, line := range Lines(a, b) {
		switch line.Kind {
		case LineDeleted:
			out += "- " + line.Text + "\n"
		case LineAdded:
			out += "+ " + line.Text + "\n"
		default:
			out += "  " + line.Text + "\n"
		}
	}
	return out
}

func joinVersions(versions []string) string {
	out := ""
	for i, v := range versions {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	if out == "" {
		out = fmt.Sprintf("%d versions", len(versions))
	}
	return out
}
