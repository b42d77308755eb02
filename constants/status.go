package constants

// RunStatus is the canonical status for rows in analysis_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued   RunStatus = "QUEUED"   // accepted, not started
	RunStatusRunning  RunStatus = "RUNNING"  // analyzer in progress
	RunStatusAnalyzed RunStatus = "ANALYZED" // record produced
	RunStatusEmpty    RunStatus = "EMPTY"    // blank input, no record
	RunStatusFailed   RunStatus = "FAILED"   // terminal failure
)

// Terminal reports whether no further transition is expected.
func (s RunStatus) Terminal() bool {
	return s == RunStatusAnalyzed || s == RunStatusEmpty || s == RunStatusFailed
}

// RunStatusStrings lists every run status as stored.
func RunStatusStrings() []string {
	return []string{
		string(RunStatusQueued),
		string(RunStatusRunning),
		string(RunStatusAnalyzed),
		string(RunStatusEmpty),
		string(RunStatusFailed),
	}
}
