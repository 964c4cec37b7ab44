// Package progress computes pipeline progress reports.
//
// The computation is a pure function over an injected snapshot of the
// world (which fragment files exist, which recognition jobs are active),
// so the same logic serves the CLI status command, the watch loop, and
// the HTTP API without any of them holding ambient state.
package progress

import (
	"fmt"
	"strings"
)

// Snapshot is the observable state of a recognition run at one instant.
// Callers assemble it from the work directory and, when available, the
// pool's job table.
type Snapshot struct {
	ExpectedPages int      // pages handed to the engine
	Fragments     []string // fragment files present on disk
	ActiveJobs    []string // identifiers of jobs currently running
	FailedPages   int
}

// Report is the derived progress summary.
type Report struct {
	Done     int
	Expected int
	Running  int
	Failed   int
	Complete bool // every expected fragment is present
	Stalled  bool // fragments are missing but nothing is running
}

// Compute derives a report from a snapshot.
func Compute(s Snapshot) Report {
	r := Report{
		Done:     len(s.Fragments),
		Expected: s.ExpectedPages,
		Running:  len(s.ActiveJobs),
		Failed:   s.FailedPages,
	}
	if r.Done > r.Expected {
		// Stale fragments from a previous run; trust the directory.
		r.Expected = r.Done
	}
	r.Complete = r.Expected > 0 && r.Done+r.Failed >= r.Expected
	r.Stalled = !r.Complete && r.Running == 0
	return r
}

// String renders the report for terminal output, e.g.
// "3/7 pages recognized, 2 running".
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d pages recognized", r.Done, r.Expected)
	if r.Running > 0 {
		fmt.Fprintf(&b, ", %d running", r.Running)
	}
	if r.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", r.Failed)
	}
	switch {
	case r.Complete:
		b.WriteString(" (complete)")
	case r.Stalled:
		b.WriteString(" (stalled, no active jobs)")
	}
	return b.String()
}
