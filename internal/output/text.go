package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// textReporter prints notices grouped under their file, followed by a summary line.
type textReporter struct {
	w       io.Writer
	summary Summary

	file     lipgloss.Style
	position lipgloss.Style
	source   lipgloss.Style
	severity map[core.Severity]lipgloss.Style
}

func newText(w io.Writer, opts Options) Reporter {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(opts.Color.profile(w))

	return &textReporter{
		w:        w,
		file:     r.NewStyle().Bold(true).Underline(true),
		position: r.NewStyle().Foreground(lipgloss.Color("8")),
		source:   r.NewStyle().Foreground(lipgloss.Color("8")),
		severity: map[core.Severity]lipgloss.Style{
			core.SeverityFatal: r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
			core.SeverityError: r.NewStyle().Foreground(lipgloss.Color("1")),
			core.SeverityWarn:  r.NewStyle().Foreground(lipgloss.Color("3")),
			core.SeverityInfo:  r.NewStyle().Foreground(lipgloss.Color("4")),
		},
	}
}

func (t *textReporter) Notify(file string, notices []lint.Notice) error {
	t.summary.Add(notices)
	if len(notices) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(t.file.Render(file))
	b.WriteByte('\n')
	for _, n := range notices {
		fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
			t.position.Render(fmt.Sprintf("%-7s", position(n))),
			t.severity[n.Severity].Render(fmt.Sprintf("%-5s", n.Severity)),
			n.Message,
			t.source.Render(source(n)),
		)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *textReporter) Finalize() error {
	_, err := fmt.Fprintln(t.w, t.summary.String())
	return err
}
