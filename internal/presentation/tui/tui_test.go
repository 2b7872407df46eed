package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/silvershell/pkg/runner"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyler_AsciiIsPlain(t *testing.T) {
	s := NewStyler(termenv.Ascii)

	assert.Equal(t, "JS >>", s.Style(runner.KindTag, "JS >>"))
	assert.Equal(t, runner.FarewellMessage, s.Style(runner.KindFarewell, runner.FarewellMessage))
}

func TestStyler_ANSIColours(t *testing.T) {
	s := NewStyler(termenv.ANSI)

	styled := s.Style(runner.KindWarning, "blocked")
	assert.True(t, strings.HasPrefix(styled, "\x1b["))
	assert.Contains(t, styled, "blocked")

	assert.Equal(t, "raw", s.Style(runner.KindCommandOutput, "raw"), "command output is left to the renderer")
}

func TestDetectProfile_NoColor(t *testing.T) {
	assert.Equal(t, termenv.Ascii, DetectProfile(true))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, termenv.Ascii)

	out := buf.String()
	assert.Contains(t, out, Title)
	assert.Contains(t, out, Hint)
	assert.Equal(t, len(bannerArt)+4, strings.Count(out, "\n"))
}

func TestNewRenderer_FencedBlock(t *testing.T) {
	render, err := NewRenderer()
	require.NoError(t, err)

	out, err := render(runner.FenceBash("PORT   STATE SERVICE\n80/tcp open  http"))
	require.NoError(t, err)
	assert.Contains(t, out, "80/tcp")
}
