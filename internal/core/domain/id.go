package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRequestID generates a lowercase ULID used to correlate a request or a
// refresh cycle across log lines.
func NewRequestID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	return strings.ToLower(id.String())
}
