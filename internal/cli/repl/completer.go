package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the given command names.
func NewCompleter(commands []string) *Completer {
	sorted := append([]string(nil), commands...)
	sort.Strings(sorted)
	return &Completer{commands: sorted}
}

// Known reports whether name is a command.
func (c *Completer) Known(name string) bool {
	i := sort.SearchStrings(c.commands, name)
	return i < len(c.commands) && c.commands[i] == name
}

// Complete returns the commands starting with prefix, in sorted order.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
