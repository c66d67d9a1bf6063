package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats data as JSON.
type JSONFormatter struct {
	// Compact emits one object per line, as used by watch.
	Compact bool
}

// Format formats data as JSON.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if !f.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}
