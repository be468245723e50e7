// Package templates renders HTML pages.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/goccy/go-json"

	"github.com/JonMunkholm/tablecheck/internal/report"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2933}
table{border-collapse:collapse;margin:.5rem 0 1.5rem;width:100%}
th,td{border:1px solid #d2d6dc;padding:.3rem .6rem;text-align:left;vertical-align:top}
th{background:#f4f5f7}
.valid{color:#046c4e}.invalid{color:#c81e1e}
code{font-size:.85em;word-break:break-all}`

// ReportPage renders a stored report.
func ReportPage(doc *report.Document) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		title := "Validation report"
		if doc.Package != "" {
			title += ": " + doc.Package
		}

		p.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
		p.text(title)
		p.raw("</title><style>" + pageStyle + "</style></head><body><h1>")
		p.text(title)
		p.raw("</h1>")

		p.raw("<p>")
		p.status(doc.Valid)
		p.raw(fmt.Sprintf(" &middot; %d errors in %d tables &middot; %.3fs &middot; ",
			doc.ErrorCount, doc.TableCount, doc.Time))
		p.text(doc.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
		p.raw("</p><p><small>ID <code>")
		p.text(doc.ID)
		p.raw("</code></small></p>")

		if len(doc.Warnings) > 0 {
			p.raw("<h2>Warnings</h2><ul>")
			for _, warn := range doc.Warnings {
				p.raw("<li>")
				p.text(warn)
				p.raw("</li>")
			}
			p.raw("</ul>")
		}

		for _, t := range doc.Tables {
			p.table(t)
		}
		p.raw("</body></html>")
		return p.err
	})
}

// printer writes until the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *printer) status(valid bool) {
	if valid {
		p.raw(`<strong class="valid">valid</strong>`)
	} else {
		p.raw(`<strong class="invalid">invalid</strong>`)
	}
}

func (p *printer) table(t *report.TableDocument) {
	p.raw("<h2>")
	p.text(t.Resource)
	p.raw("</h2><p>")
	p.status(t.Valid)
	p.raw(fmt.Sprintf(" &middot; %d rows &middot; %d errors</p>", t.RowCount, t.ErrorCount))
	if len(t.Source) > 0 {
		p.raw("<p><small>")
		p.text(strings.Join(t.Source, ", "))
		p.raw("</small></p>")
	}
	if len(t.Errors) == 0 {
		return
	}

	p.raw("<table><thead><tr><th>Code</th><th>Message</th><th>Values</th></tr></thead><tbody>")
	for _, e := range t.Errors {
		p.raw("<tr><td>")
		p.text(e.Code)
		p.raw("</td><td>")
		p.text(e.Message)
		p.raw("</td><td><code>")
		p.text(valuesText(e.Values))
		p.raw("</code></td></tr>")
	}
	p.raw("</tbody></table>")
}

func valuesText(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
