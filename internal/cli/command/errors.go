package command

import (
	"errors"
	"fmt"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitAuth       = 3
	ExitValidation = 4
	ExitNetwork    = 5
	ExitStorage    = 6
)

var (
	// ErrUsage marks command-line mistakes.
	ErrUsage = errors.New("usage")

	// ErrNotLoggedIn is returned by commands that need a session.
	ErrNotLoggedIn = errors.New("not logged in (run \"sesskeep-cli login\")")
)

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrNotLoggedIn):
		return ExitAuth
	}

	switch domain.KindOf(err) {
	case domain.KindAuthentication, domain.KindNoRefreshToken:
		return ExitAuth
	case domain.KindValidation:
		return ExitValidation
	case domain.KindNetwork:
		return ExitNetwork
	case domain.KindStorage, domain.KindCorruptedState:
		return ExitStorage
	default:
		return ExitFailure
	}
}

// Describe renders err for the terminal: the user-facing message plus the
// error code for domain errors.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if code := domain.GetErrorCode(err); code != "" {
		return fmt.Sprintf("%s [%s]", domain.UserMessage(err), code)
	}
	return err.Error()
}
