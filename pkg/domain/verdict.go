package domain

// BlockedMessage is shown when the safety gate denies a command.
const BlockedMessage = "Execution blocked by SilverShell safety override."

// Verdict is the safety gate decision for a Command. A denial is a normal
// outcome, not an error.
type Verdict struct {
	Allowed       bool   `json:"allowed"`
	Flagged       bool   `json:"flagged"`
	MatchedPrefix string `json:"matched_prefix,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Allow returns an allowing verdict.
func Allow(flagged bool, prefix string) Verdict {
	return Verdict{Allowed: true, Flagged: flagged, MatchedPrefix: prefix}
}

// Deny returns a denying verdict carrying BlockedMessage.
func Deny(prefix string) Verdict {
	return Verdict{Flagged: true, MatchedPrefix: prefix, Message: BlockedMessage}
}
