// Package report renders a run summary as markdown and as a sanitized,
// self-contained HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kuitang/dealer-verify/internal/errs"
	"github.com/kuitang/dealer-verify/internal/harness"
)

// Outcome is one scenario's entry in the report. Exactly one of Result and
// Err is set.
type Outcome struct {
	Scenario      string
	Result        *harness.Result
	Err           error
	ScreenshotURL string // set when the screenshot was published
}

// Passed reports whether the scenario succeeded.
func (o Outcome) Passed() bool {
	return o.Err == nil && o.Result != nil
}

// Failed counts failing outcomes.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}

// Markdown renders the run summary.
func Markdown(runID string, outcomes []Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Verification run %s\n\n", escapeCell(runID))
	fmt.Fprintf(&b, "%d of %d scenarios passed.\n\n", len(outcomes)-Failed(outcomes), len(outcomes))

	b.WriteString("| Scenario | Status | Duration | Screenshot | Mock hits |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, o := range outcomes {
		status, duration, shot, hits := "FAIL", "-", "-", "-"
		if o.Passed() {
			status = "PASS"
			duration = o.Result.Duration.Round(time.Millisecond).String()
			shot = "`" + escapeCell(o.Result.Screenshot) + "`"
			if o.ScreenshotURL != "" {
				shot = fmt.Sprintf("[%s](%s)", escapeCell(filepath.Base(o.Result.Screenshot)), o.ScreenshotURL)
			}
			hits = formatHits(o.Result.MockHits)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", escapeCell(o.Scenario), status, duration, shot, hits)
	}

	var failures []Outcome
	var warnings []string
	for _, o := range outcomes {
		if !o.Passed() {
			failures = append(failures, o)
		} else {
			for _, s := range o.Result.Shadowed {
				warnings = append(warnings, fmt.Sprintf("%s: %s", o.Scenario, s))
			}
		}
	}
	if len(failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, o := range failures {
			fmt.Fprintf(&b, "- **%s** (`%s`): %s\n", escapeCell(o.Scenario), errs.CodeOf(o.Err), escapeCell(errorText(o.Err)))
		}
	}
	if len(warnings) > 0 {
		b.WriteString("\n## Shadowed mocks\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", escapeCell(w))
		}
	}
	return b.String()
}

func errorText(err error) string {
	if err == nil {
		return "no result"
	}
	return strings.ReplaceAll(err.Error(), "\n", " ")
}

func formatHits(hits map[string]int) string {
	if len(hits) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(hits))
	for k := range hits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("`%s` %d", escapeCell(k), hits[k]))
	}
	return strings.Join(parts, ", ")
}

// escapeCell keeps text from breaking out of a table cell or inline code.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "`", "'")
	return s
}

// ToHTML converts markdown to sanitized HTML.
func ToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	htmlContent := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("table", "thead", "tbody", "tr", "th", "td", "code")
	return policy.SanitizeBytes(htmlContent)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 960px; margin: 0 auto; padding: 2rem 1rem; line-height: 1.5; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #e0e0e0; padding: 0.4rem 0.6rem; text-align: left; vertical-align: top; }
        code { background: #f5f5f5; padding: 0.1em 0.3em; border-radius: 3px; }
    </style>
</head>
<body>
{{.Content}}
</body>
</html>
`

var page = template.Must(template.New("report").Parse(pageTemplate))

// Render returns the complete HTML report document.
func Render(runID string, outcomes []Outcome) ([]byte, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title   string
		Content template.HTML
	}{
		Title:   "Verification run " + runID,
		Content: template.HTML(ToHTML(Markdown(runID, outcomes))),
	})
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report to path, creating parent directories.
func WriteFile(path, runID string, outcomes []Outcome) error {
	body, err := Render(runID, outcomes)
	if err != nil {
		return errs.Wrap(errs.Artifact, "render report", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.Artifact, "create report directory", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return errs.Wrap(errs.Artifact, "write report", err)
	}
	return nil
}
