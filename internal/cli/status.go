package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	stepColor = color.New(color.FgCyan)
)

// success prints a "✓" status line to stderr
func success(format string, a ...any) {
	okColor.Fprint(os.Stderr, "✓ ")
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}

func warning(format string, a ...any) {
	warnColor.Fprint(os.Stderr, "! ")
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}

func failure(format string, a ...any) {
	failColor.Fprint(os.Stderr, "✗ ")
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}

// step announces a stage when verbose output is on
func step(format string, a ...any) {
	if !verbose {
		return
	}
	stepColor.Fprint(os.Stderr, "⚙ ")
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}
