package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leapstack-labs/metalint/pkg/lint"
)

// tableReporter renders every notice of the run as one table.
type tableReporter struct {
	w       io.Writer
	t       table.Writer
	summary Summary
}

func newTable(w io.Writer, _ Options) Reporter {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"File", "Position", "Severity", "Linter", "Message"})
	return &tableReporter{w: w, t: t}
}

func (r *tableReporter) Notify(file string, notices []lint.Notice) error {
	r.summary.Add(notices)
	for _, n := range notices {
		r.t.AppendRow(table.Row{file, position(n), n.Severity.String(), source(n), n.Message})
	}
	return nil
}

func (r *tableReporter) Finalize() error {
	if r.summary.Total() == 0 {
		_, err := fmt.Fprintln(r.w, r.summary.String())
		return err
	}
	r.t.AppendFooter(table.Row{"", "", "", "", r.summary.String()})
	r.t.Render()
	return nil
}
