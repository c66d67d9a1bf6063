package repl

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHistorySize is the number of entries kept.
const DefaultHistorySize = 1000

// secretFlags are flags whose values never reach the history.
var secretFlags = map[string]bool{
	"-p":                 true,
	"--password":         true,
	"--confirm-password": true,
	"-t":                 true,
	"--token":            true,
}

// History manages command history for the shell.
type History struct {
	entries []string
	maxSize int
	file    string
}

// NewHistory creates a History persisted to file. An empty file keeps the
// history in memory only.
func NewHistory(file string, maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{
		entries: make([]string, 0),
		maxSize: maxSize,
		file:    file,
	}
}

// Add records a command with secret flag values masked.
func (h *History) Add(cmd string) {
	h.entries = append(h.entries, maskSecrets(cmd))
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[1:]
	}
}

// Get returns the history entry at index (0 = most recent).
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Load loads history from file.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}
	file, err := os.Open(h.file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		h.Add(scanner.Text())
	}
	return scanner.Err()
}

// Save writes history to file with owner-only permissions.
func (h *History) Save() error {
	if h.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.file), 0o700); err != nil {
		return err
	}

	file, err := os.OpenFile(h.file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, entry := range h.entries {
		if _, err := w.WriteString(entry + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// maskSecrets replaces the values of secret flags with "***".
func maskSecrets(line string) string {
	fields := strings.Fields(line)
	masked := false
	for i := 0; i < len(fields); i++ {
		name, _, hasValue := strings.Cut(fields[i], "=")
		if !secretFlags[name] {
			continue
		}
		if hasValue {
			fields[i] = name + "=***"
			masked = true
		} else if i+1 < len(fields) {
			fields[i+1] = "***"
			masked = true
			i++
		}
	}
	if !masked {
		return line
	}
	return strings.Join(fields, " ")
}
