package output

import (
	"encoding/json"
	"io"

	"github.com/leapstack-labs/metalint/pkg/lint"
)

type jsonFile struct {
	File    string        `json:"file"`
	Notices []lint.Notice `json:"notices"`
}

type jsonReport struct {
	Files   []jsonFile `json:"files"`
	Summary Summary    `json:"summary"`
}

// jsonReporter buffers the run and writes one document on Finalize. Files
// no linter ran on are left out.
type jsonReporter struct {
	w      io.Writer
	report jsonReport
}

func newJSON(w io.Writer, _ Options) Reporter {
	return &jsonReporter{w: w, report: jsonReport{Files: []jsonFile{}}}
}

func (j *jsonReporter) Notify(file string, notices []lint.Notice) error {
	if notices == nil {
		return nil
	}
	j.report.Summary.Add(notices)
	j.report.Files = append(j.report.Files, jsonFile{File: file, Notices: notices})
	return nil
}

func (j *jsonReporter) Finalize() error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.report)
}
