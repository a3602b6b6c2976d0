// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"regexp"
	"testing"

	"github.com/agbru/hypbound/internal/mag"
	"github.com/agbru/hypbound/internal/ui"
)

// ansiRegex matches CSI escape sequences (ESC [ params letter).
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes terminal escape codes so output can be compared as text.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// UseTheme activates th for the rest of the test and restores the previous
// theme on cleanup. Tests calling it must not run in parallel.
func UseTheme(t testing.TB, th ui.Theme) {
	t.Helper()
	prev := ui.Current()
	ui.SetCurrent(th)
	t.Cleanup(func() { ui.SetCurrent(prev) })
}

// MustMag parses a decimal upper bound or fails the test.
func MustMag(t testing.TB, s string) mag.Mag {
	t.Helper()
	m, err := mag.ParseDecimal(s)
	if err != nil {
		t.Fatalf("ParseDecimal(%q): %v", s, err)
	}
	return m
}
