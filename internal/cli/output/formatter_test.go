package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string    `json:"name" yaml:"name"`
	Count   int       `json:"count" yaml:"count"`
	Secret  string    `json:"-" yaml:"-"`
	Created time.Time `json:"createdAt" yaml:"created_at"`
	Org     *nested   `json:"org,omitempty" yaml:"org,omitempty"`
	hidden  string
}

type nested struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"", FormatTable, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("expected TableFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TableFormatter); !ok {
		t.Error("unknown format should default to TableFormatter")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	data := sample{Name: "alice", Count: 2, Secret: "s3cr3t"}

	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"name": "alice"`) {
		t.Errorf("missing name field: %s", out)
	}
	if strings.Contains(out, "s3cr3t") {
		t.Error("json:\"-\" field must not be printed")
	}

	buf.Reset()
	if err := (&JSONFormatter{Compact: true}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("compact output should be one line, got %q", buf.String())
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	data := sample{Name: "alice", Count: 2, Secret: "s3cr3t", Org: &nested{ID: "o1", Name: "Acme"}}

	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"name: alice", "count: 2", "org:\n  id: o1\n  name: Acme"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "s3cr3t") {
		t.Error("yaml:\"-\" field must not be printed")
	}
}
