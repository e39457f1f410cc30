package probe

import "time"

// Source identifies where a candidate came from in the priority chain
type Source string

const (
	SourceOverride    Source = "override"
	SourceConfig      Source = "config"
	SourceActiveVenv  Source = "active-venv"
	SourceProjectVenv Source = "project-venv"
	SourceParentVenv  Source = "parent-venv"
	SourceExtra       Source = "extra"
	SourceSystem      Source = "system"
)

// Candidate is one interpreter to try, in priority order.
// Identity is its position in the candidate list: the first candidate
// confirmed to import the module wins.
type Candidate struct {
	Name    string `json:"name"`
	Command string `json:"command"`
	Source  Source `json:"source"`
}

// Result records the outcome of probing a single candidate.
// Found means the command resolved to an executable; OK means the import
// was confirmed via the sentinel. Diagnostic is only set on failure;
// Interpreter and ModulePath only on success (best-effort).
type Result struct {
	Candidate   Candidate     `json:"candidate"`
	Found       bool          `json:"found"`
	OK          bool          `json:"ok"`
	Diagnostic  string        `json:"diagnostic,omitempty"`
	Interpreter string        `json:"interpreter,omitempty"`
	ModulePath  string        `json:"module_path,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Report holds one Result per input candidate, in input order.
type Report struct {
	Module  string   `json:"module"`
	Results []Result `json:"results"`
}

// Selected returns the first successful result in candidate order.
func (r *Report) Selected() (Result, bool) {
	for _, res := range r.Results {
		if res.OK {
			return res, true
		}
	}
	return Result{}, false
}

// FoundCount returns how many candidates confirmed the import.
func (r *Report) FoundCount() int {
	count := 0
	for _, res := range r.Results {
		if res.OK {
			count++
		}
	}
	return count
}
