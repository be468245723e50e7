package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/tablecheck/internal/report"
)

// printReport writes rep as indented JSON or as a text summary.
func printReport(w io.Writer, rep *report.Report, asJSON bool) error {
	doc := rep.Document()
	if asJSON {
		return doc.Encode(w)
	}
	return writeText(w, doc)
}

// writeText renders one line per table and one per error.
func writeText(w io.Writer, doc *report.Document) error {
	var b strings.Builder

	status := "valid"
	if !doc.Valid {
		status = "INVALID"
	}
	name := doc.Package
	if name == "" {
		name = "package"
	}
	fmt.Fprintf(&b, "%s: %s (%d errors in %d tables, %.3fs)\n",
		name, status, doc.ErrorCount, doc.TableCount, doc.Time)

	for _, t := range doc.Tables {
		mark := "ok"
		if !t.Valid {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s: %d rows, %d errors\n", mark, t.Resource, t.RowCount, t.ErrorCount)
		for _, e := range t.Errors {
			fmt.Fprintf(&b, "    - %s: %s", e.Code, e.Message)
			if e.Values != nil {
				if v, err := json.Marshal(e.Values); err == nil {
					fmt.Fprintf(&b, " %s", v)
				}
			}
			b.WriteByte('\n')
		}
	}
	for _, warn := range doc.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warn)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
