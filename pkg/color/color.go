package color

import (
	"os"

	"github.com/muesli/termenv"
)

// ANSI palette indices
const (
	Green   = "2"
	Yellow  = "3"
	Magenta = "5"
	Cyan    = "6"
	Gray    = "8"

	BrightRed = "9"
)

var (
	profile      = termenv.Ascii
	colorEnabled = true
)

func init() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal() {
		colorEnabled = false
	}
	profile = termenv.EnvColorProfile()
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

func EnableColor(enable bool) {
	colorEnabled = enable
}

// Colorize paints text with a palette color from the terminal's profile.
func Colorize(color, text string) string {
	if !colorEnabled {
		return text
	}
	return profile.String(text).Foreground(profile.Color(color)).String()
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

// OpcodeText highlights an instruction rendering for trace output.
func OpcodeText(text string) string {
	return Colorize(Magenta, text)
}

// Banner renders a section title such as "=== Result ===".
func Banner(title string) string {
	return GreenText("=== " + title + " ===")
}
