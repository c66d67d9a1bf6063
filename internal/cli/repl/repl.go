package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultPrompt is printed before each line.
const DefaultPrompt = "sesskeep> "

// ErrUnterminatedQuote is returned by SplitArgs for a dangling quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// ExecFunc runs one command line. in is the shell's own input, so a command
// may read further lines from it (for example a password).
type ExecFunc func(ctx context.Context, args []string, in io.Reader) error

// Config configures a REPL.
type Config struct {
	Input    io.Reader
	Output   io.Writer
	Prompt   string
	Commands []string
	History  *History
	Exec     ExecFunc

	// Describe renders command errors. Defaults to err.Error().
	Describe func(error) string
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	reader    *bufio.Reader
	output    io.Writer
	prompt    string
	exec      ExecFunc
	describe  func(error) string
	completer *Completer
	history   *History
}

// New creates a new REPL instance.
func New(cfg Config) *REPL {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.History == nil {
		cfg.History = NewHistory("", 0)
	}
	if cfg.Describe == nil {
		cfg.Describe = func(err error) string { return err.Error() }
	}
	return &REPL{
		reader:    bufio.NewReader(cfg.Input),
		output:    cfg.Output,
		prompt:    cfg.Prompt,
		exec:      cfg.Exec,
		describe:  cfg.Describe,
		completer: NewCompleter(append(cfg.Commands, "exit", "quit")),
		history:   cfg.History,
	}
}

// Run reads and executes lines until exit, quit, EOF or ctx cancellation.
// Command failures are printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}

	err := r.loop(ctx)

	if serr := r.history.Save(); serr != nil {
		fmt.Fprintf(r.output, "warning: save history: %v\n", serr)
	}
	return err
}

func (r *REPL) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.output, r.prompt)

		line, err := r.reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		r.execute(ctx, line)
	}
}

func (r *REPL) execute(ctx context.Context, line string) {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
		return
	}
	if len(args) == 0 || args[0] == "" {
		return
	}

	if !r.completer.Known(args[0]) && !strings.HasPrefix(args[0], "-") {
		fmt.Fprintf(r.output, "error: unknown command %q", args[0])
		if s := r.completer.Complete(args[0][:1]); len(s) > 0 {
			fmt.Fprintf(r.output, " (did you mean: %s)", strings.Join(s, ", "))
		}
		fmt.Fprintln(r.output)
		return
	}

	if err := r.exec(ctx, args, r.reader); err != nil {
		fmt.Fprintf(r.output, "error: %s\n", r.describe(err))
	}
}

// SplitArgs splits a line into arguments. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, c := range line {
		switch {
		case escaped:
			current.WriteRune(c)
			escaped = false
		case c == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteRune(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inArg = true
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(c)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
