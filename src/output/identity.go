package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Identity is the tool identity printed at the top of a run.
type Identity struct {
	Version string
	Commit  string
	Date    string
}

// PrintIdentity writes a single identity line, e.g.
//
//	nightlyfreight · v1.2.0 · 3f2a9c1d · 2026-01-04
func PrintIdentity(w io.Writer, id Identity, color bool) {
	parts := []string{"nightlyfreight"}
	for _, p := range []string{id.Version, id.Commit, id.Date} {
		if p != "" && p != "unknown" {
			parts = append(parts, p)
		}
	}
	line := strings.Join(parts, " · ")
	if color {
		line = "\033[1;36m" + line + "\033[0m"
	}
	fmt.Fprintf(w, "\n  %s\n", line)
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}
