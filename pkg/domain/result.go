package domain

import "time"

// FailureKind classifies why a command did not produce a usable result.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureProgramNotFound FailureKind = "program_not_found"
	FailureSpawnOrRuntime  FailureKind = "spawn_or_runtime"
)

// ExecutionResult is produced exactly once per Command by the executor.
// Output always carries displayable text, including for failures, so it can
// still be classified and analysed.
type ExecutionResult struct {
	Command     Command       `json:"command"`
	Output      string        `json:"output"`
	Succeeded   bool          `json:"succeeded"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	ExitCode    int           `json:"exit_code"`
	Failure     FailureKind   `json:"failure,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Failed reports whether the result carries a failure classification.
func (r ExecutionResult) Failed() bool {
	return r.Failure != FailureNone
}
