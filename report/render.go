package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// UsageLine is shown under the result when the usage count is known.
func UsageLine(count int) string {
	if count <= 0 {
		return ""
	}

	return fmt.Sprintf("%d people have mapped their effort structure.", count)
}

// RenderText writes a plain-text report.
func RenderText(w io.Writer, doc *Document) error {
	var sb strings.Builder

	sb.WriteString("EFFORT ECONOMICS\n")
	sb.WriteString(strings.Repeat("=", len("EFFORT ECONOMICS")))
	sb.WriteString("\n")

	for _, section := range doc.Result.Sections() {
		fmt.Fprintf(&sb, "\n%s\n", section.Title)

		for _, item := range section.Items {
			fmt.Fprintf(&sb, "  - %s\n", item)
		}
	}

	fmt.Fprintf(&sb, "\nOperating rule\n  %s\n", doc.Result.OperatingRule)

	if line := UsageLine(doc.Usage); line != "" {
		fmt.Fprintf(&sb, "\n%s\n", line)
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

//go:embed result.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("result").Parse(htmlSource)) //nolint:gochecknoglobals

// HTMLOptions are links the HTML page needs.
type HTMLOptions struct {
	// FeedbackURL receives POST {"vote": "up"|"down"}.
	FeedbackURL string
	// NewCalculationURL receives DELETE to clear the stored result.
	NewCalculationURL string
	// HomeURL is where the person goes after starting over.
	HomeURL string
}

type htmlData struct {
	*Document
	HTMLOptions
	UsageLine string
}

// RenderHTML writes the result page.
func RenderHTML(w io.Writer, doc *Document, opts HTMLOptions) error {
	if opts.HomeURL == "" {
		opts.HomeURL = "/"
	}

	return htmlTemplate.Execute(w, htmlData{
		Document:    doc,
		HTMLOptions: opts,
		UsageLine:   UsageLine(doc.Usage),
	})
}
