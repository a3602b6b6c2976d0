// Package ui holds the terminal colour themes shared by the CLI, the batch
// report and the usage text. Every helper returns an ANSI escape sequence
// from the active theme, or the empty string when colours are disabled.
package ui

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Theme maps the roles used in hypbound's output to ANSI escape codes.
type Theme struct {
	Name string
	// Accent highlights parameters and names.
	Accent string
	// Muted is used for secondary details such as seeds and iteration counts.
	Muted string
	// Good marks converged bounds.
	Good string
	// Warn marks durations and retriable failures.
	Warn string
	// Bad marks permanent failures.
	Bad string
	// Value highlights the reported term count and tail bound.
	Value  string
	Strong string
	Under  string
	Reset  string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:   "dark",
		Accent: "\033[38;5;39m",
		Muted:  "\033[38;5;245m",
		Good:   "\033[38;5;82m",
		Warn:   "\033[38;5;220m",
		Bad:    "\033[38;5;196m",
		Value:  "\033[38;5;141m",
		Strong: "\033[1m",
		Under:  "\033[4m",
		Reset:  "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:   "light",
		Accent: "\033[38;5;27m",
		Muted:  "\033[38;5;240m",
		Good:   "\033[38;5;28m",
		Warn:   "\033[38;5;130m",
		Bad:    "\033[38;5;124m",
		Value:  "\033[38;5;54m",
		Strong: "\033[1m",
		Under:  "\033[4m",
		Reset:  "\033[0m",
	}

	// NoColorTheme emits no escape codes at all.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	current   = DarkTheme
	currentMu sync.RWMutex
)

// Current returns the active theme.
func Current() Theme {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetCurrent replaces the active theme. Tests use it to restore state.
func SetCurrent(t Theme) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = t
}

// Lookup returns the theme registered under name.
func Lookup(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// ColorsWanted reports whether coloured output should be written to w:
// noColor and the NO_COLOR environment variable (https://no-color.org/)
// both disable colours, as does a w that is not a terminal.
func ColorsWanted(noColor bool, w io.Writer) bool {
	if noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return IsTerminal(w)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// InitTheme activates DarkTheme when colours are wanted on w and
// NoColorTheme otherwise.
func InitTheme(noColor bool, w io.Writer) {
	if ColorsWanted(noColor, w) {
		SetCurrent(DarkTheme)
		return
	}
	SetCurrent(NoColorTheme)
}

func Accent() string { return Current().Accent }
func Muted() string  { return Current().Muted }
func Good() string   { return Current().Good }
func Warn() string   { return Current().Warn }
func Bad() string    { return Current().Bad }
func Value() string  { return Current().Value }
func Strong() string { return Current().Strong }
func Under() string  { return Current().Under }
func Reset() string  { return Current().Reset }
