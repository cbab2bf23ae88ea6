package lint

import (
	"cmp"
	"slices"
	"sync"

	"github.com/leapstack-labs/metalint/pkg/core"
)

// Results collects the notices of one run, keyed by file.
//
// A file starts "unmatched" (a nil slice in Map) and is promoted to an empty,
// non-nil slice the first time any linter reports on it, even with nothing
// to say. A promoted file never goes back to unmatched.
type Results struct {
	mu      sync.Mutex
	notices map[string][]Notice
}

// NewResults starts a result set where every file is unmatched.
func NewResults(files []string) *Results {
	notices := make(map[string][]Notice, len(files))
	for _, f := range files {
		notices[f] = nil
	}
	return &Results{notices: notices}
}

// Add records the notices a linter returned for file. Missing severities
// default to SeverityError and missing locations to an empty list. Each
// notice is stored under its own File, which may name a path that was not
// in the original file list (an archive member, for instance).
func (r *Results) Add(file string, notices []Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.promote(file)
	for _, n := range notices {
		if n.File == "" {
			n.File = file
		}
		if n.Severity == 0 {
			n.Severity = core.SeverityError
		}
		if n.Locations == nil {
			n.Locations = []Location{}
		}
		r.promote(n.File)
		r.notices[n.File] = append(r.notices[n.File], n)
	}
}

func (r *Results) promote(file string) {
	if r.notices[file] == nil {
		r.notices[file] = []Notice{}
	}
}

// Map returns the notices of every file sorted by location. Unmatched files
// map to nil.
func (r *Results) Map() map[string][]Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]Notice, len(r.notices))
	for file, notices := range r.notices {
		if notices == nil {
			out[file] = nil
			continue
		}
		sorted := slices.Clone(notices)
		if sorted == nil {
			sorted = []Notice{}
		}
		slices.SortStableFunc(sorted, func(a, b Notice) int {
			return CompareLocations(a.Locations, b.Locations)
		})
		out[file] = sorted
	}
	return out
}

// CompareLocations orders two location lists by their successive line and
// column pairs; a missing column sorts as -1. When every compared pair ties,
// the shorter list comes first.
func CompareLocations(a, b []Location) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmp.Compare(a[i].Line, b[i].Line); c != 0 {
			return c
		}
		if c := cmp.Compare(column(a[i]), column(b[i])); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func column(l Location) int {
	if l.Column == 0 {
		return -1
	}
	return l.Column
}
