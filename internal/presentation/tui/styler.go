package tui

import (
	"github.com/aretw0/silvershell/pkg/runner"
	"github.com/muesli/termenv"
)

// Styler colours runner output with termenv, using the bright ANSI palette of
// the classic SilverShell look.
type Styler struct {
	profile termenv.Profile
}

// NewStyler creates a Styler for profile. Use termenv.Ascii to disable colour.
func NewStyler(profile termenv.Profile) *Styler {
	return &Styler{profile: profile}
}

// DetectProfile returns the terminal's colour profile, or Ascii when noColor is set.
func DetectProfile(noColor bool) termenv.Profile {
	if noColor {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// Style implements runner.Styler.
func (s *Styler) Style(kind runner.Kind, text string) string {
	if s.profile == termenv.Ascii {
		return text
	}
	out := termenv.String(text)
	switch kind {
	case runner.KindPrompt:
		out = out.Foreground(s.profile.Color("10"))
	case runner.KindSuggestionHeader:
		out = out.Foreground(s.profile.Color("11"))
	case runner.KindSuggestion:
		out = out.Foreground(s.profile.Color("10")).Bold()
	case runner.KindTag:
		out = out.Foreground(s.profile.Color("14"))
	case runner.KindReply:
		out = out.Foreground(s.profile.Color("10"))
	case runner.KindWarning, runner.KindFarewell:
		out = out.Foreground(s.profile.Color("9"))
	case runner.KindError:
		out = out.Foreground(s.profile.Color("9")).Bold()
	default:
		return text
	}
	return out.String()
}
