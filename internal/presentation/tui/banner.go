package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Title and Hint are printed under the banner art.
const (
	Title = ">> SilverShell v3 - Recon AI <<"
	Hint  = "Type a question, or use ! to run a shell command (e.g., !nmap -A TARGET)."
)

var bannerArt = []string{
	` ____  _ _                ____  _          _ _ `,
	`/ ___|(_) |_   _____ _ __/ ___|| |__   ___| | |`,
	`\___ \| | \ \ / / _ \ '__\___ \| '_ \ / _ \ | |`,
	` ___) | | |\ V /  __/ |   ___) | | | |  __/ | |`,
	`|____/|_|_| \_/ \___|_|  |____/|_| |_|\___|_|_|`,
}

// Neon gradient, top to bottom.
var bannerColors = []string{"#00ffd5", "#00e5ff", "#3da9ff", "#b15cff", "#ff2a6d"}

// PrintBanner writes the SilverShell banner, title and usage hint to w.
func PrintBanner(w io.Writer, p termenv.Profile) {
	fmt.Fprintln(w)
	for i, line := range bannerArt {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i%len(bannerColors)])))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, termenv.String(Title).Foreground(p.Color("10")).Bold())
	fmt.Fprintln(w, termenv.String(Hint).Foreground(p.Color("3")))
}
