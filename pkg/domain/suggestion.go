package domain

// SuggestionList is an ordered, duplicate-free list of at most MaxSuggestions
// command templates. Placeholders such as TargetPlaceholder are not substituted.
type SuggestionList []string

// Empty reports whether no suggestion was produced.
func (s SuggestionList) Empty() bool {
	return len(s) == 0
}
