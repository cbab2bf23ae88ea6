package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// github writes GitHub Actions workflow commands, one annotation per notice.
type github struct {
	w io.Writer
}

func newGitHub(w io.Writer, _ Options) Reporter {
	return &github{w: w}
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func (g *github) Notify(_ string, notices []lint.Notice) error {
	for _, n := range notices {
		props := []string{"file=" + propertyEscaper.Replace(n.File)}
		if len(n.Locations) > 0 {
			l := n.Locations[0]
			props = append(props, fmt.Sprintf("line=%d", l.Line))
			if l.Column > 0 {
				props = append(props, fmt.Sprintf("col=%d", l.Column))
			}
			if l.EndLine > 0 {
				props = append(props, fmt.Sprintf("endLine=%d", l.EndLine))
			}
			if l.EndColumn > 0 {
				props = append(props, fmt.Sprintf("endColumn=%d", l.EndColumn))
			}
		}
		props = append(props, "title="+propertyEscaper.Replace(source(n)))

		if _, err := fmt.Fprintf(g.w, "::%s %s::%s\n", command(n.Severity), strings.Join(props, ","), dataEscaper.Replace(n.Message)); err != nil {
			return err
		}
	}
	return nil
}

func (g *github) Finalize() error {
	return nil
}

func command(s core.Severity) string {
	switch s {
	case core.SeverityWarn:
		return "warning"
	case core.SeverityInfo:
		return "notice"
	default:
		return "error"
	}
}
