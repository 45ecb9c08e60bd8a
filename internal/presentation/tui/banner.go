package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the survey banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`  ___ _  _ _ ____ _____ _   _ `, "#818cf8"},
		{` / __| || | '_\ V / -_) |_| |`, "#a78bfa"},
		{` \__ \\_,_|_|  \_/\___|\__, |`, "#e879f9"},
		{` |___/                 |___/ `, "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}
