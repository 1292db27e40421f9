package commands

import (
	"fmt"
	"io"
	"strings"
	"visaworkflow-backend/lib/visa"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func formatEntry(e visa.Entry) string {
	lines := []string{e.Name}
	fields := []struct {
		label string
		value string
	}{
		{"Link", e.Link},
		{"Description", e.Description},
		{"Purpose", e.Purpose},
		{"Address", e.Address},
		{"Phone", e.Phone},
		{"Instructions", e.InstructionsLink},
	}
	for _, f := range fields {
		if f.value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", f.label, f.value))
		}
	}
	return strings.Join(lines, "\n")
}

func renderResult(out io.Writer, result visa.Result) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Category", "Item"})
	for _, key := range result.Categories() {
		content, _ := result.Get(key)
		if content.IsEntries() {
			for _, e := range content.Entries() {
				t.AppendRow(table.Row{key.String(), formatEntry(e)})
			}
		} else {
			for _, line := range content.Lines() {
				t.AppendRow(table.Row{key.String(), line})
			}
		}
		t.AppendSeparator()
	}
	t.Render()
}
