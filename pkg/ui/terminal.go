package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var (
	out        io.Writer = os.Stdout
	errOut     io.Writer = os.Stderr
	quiet      bool
	colored    = isTerminal(os.Stdout)
	errColored = isTerminal(os.Stderr)
)

const red = "\033[31m%s\033[0m"

// Color functions for terminal output. They return text unchanged when the
// output is not a terminal.
var (
	Cyan   = colorize("\033[36m%s\033[0m")
	Yellow = colorize("\033[33m%s\033[0m")
	Green  = colorize("\033[32m%s\033[0m")
)

// SetOutput redirects all printing to w
func SetOutput(w io.Writer) {
	out = w
	colored = isTerminal(w)
}

// SetErrorOutput redirects error messages to w
func SetErrorOutput(w io.Writer) {
	errOut = w
	errColored = isTerminal(w)
}

// SetQuiet suppresses everything except errors
func SetQuiet(q bool) {
	quiet = q
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colored {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintError prints an error message in red on the error output. It is
// never suppressed.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg += ": " + fmt.Sprintf("%v", args[0])
	}
	if errColored {
		msg = fmt.Sprintf(red, msg)
	}
	fmt.Fprintln(errOut, msg)
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// Print writes preformatted text such as a rendered report
func Print(text string) {
	if quiet {
		return
	}
	fmt.Fprint(out, text)
}
