package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea and lipgloss touch the terminal. Plain-output
// invocations set CI=1 so termenv skips its OSC/DSR background queries,
// which would otherwise land in piped --stats or --metrics output.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args[1:], os.Getenv("MH_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}
	for _, arg := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch name {
		case "stats", "reset-progress", "version", "help", "h":
			return true
		}
	}
	return false
}
