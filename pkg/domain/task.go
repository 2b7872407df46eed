package domain

import "time"

// AnalysisTask is a single background request for commentary on command output.
// It is consumed once and never retried or persisted.
type AnalysisTask struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AnalysisResult is what a finished AnalysisTask delivers to the output sink.
type AnalysisResult struct {
	Task     AnalysisTask  `json:"task"`
	Reply    string        `json:"reply,omitempty"`
	Failure  string        `json:"failure,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the task produced a reply.
func (r AnalysisResult) OK() bool {
	return r.Failure == ""
}

// Text returns the reply or the failure description.
func (r AnalysisResult) Text() string {
	if r.OK() {
		return r.Reply
	}
	return r.Failure
}
