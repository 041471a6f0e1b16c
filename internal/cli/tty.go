package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/x/term"
)

// isInteractive reports whether out is a terminal a picker can draw on.
func isInteractive(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(f.Fd())
}
