package domain

// CommandMarker routes the remainder of an input line to command execution.
const CommandMarker = "!"

// AffirmativeToken is the only confirmation answer that lets a flagged command run.
const AffirmativeToken = "y"

// ExitTokens end the session. Matching is exact and case-insensitive.
var ExitTokens = []string{"exit", "quit"}

// MaxSuggestions caps the length of a SuggestionList.
const MaxSuggestions = 5

// TargetPlaceholder is left unsubstituted in suggestion templates.
const TargetPlaceholder = "TARGET"
