package service

import (
	"github.com/yndnr/sesskeep-go/internal/core/domain"
	"github.com/yndnr/sesskeep-go/pkg/replay"
)

// Broadcaster exposes one replay-last channel per session field.
//
// Values are copies of the session state, shared by all subscribers of a
// channel: treat them as read-only.
// Callbacks run synchronously on the publishing goroutine. They may call
// SessionManager.Snapshot but must not start manager operations inline.
type Broadcaster struct {
	user          *replay.Subject[*domain.User]
	organization  *replay.Subject[*domain.Organization]
	tokens        *replay.Subject[*domain.TokenSet]
	loading       *replay.Subject[bool]
	authenticated *replay.Subject[bool]
	admin         *replay.Subject[bool]
	err           *replay.Subject[string]
}

// NewBroadcaster creates a Broadcaster holding the logged-out state.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		user:          replay.New[*domain.User](nil),
		organization:  replay.New[*domain.Organization](nil),
		tokens:        replay.New[*domain.TokenSet](nil),
		loading:       replay.New(false),
		authenticated: replay.New(false),
		admin:         replay.New(false),
		err:           replay.New(""),
	}
}

// User is the current user channel.
func (b *Broadcaster) User() replay.Source[*domain.User] { return b.user }

// Organization is the current organization channel.
func (b *Broadcaster) Organization() replay.Source[*domain.Organization] { return b.organization }

// Tokens is the current credentials channel.
func (b *Broadcaster) Tokens() replay.Source[*domain.TokenSet] { return b.tokens }

// Loading reports whether any operation is in flight.
func (b *Broadcaster) Loading() replay.Source[bool] { return b.loading }

// Authenticated reports whether both tokens and a user are present.
func (b *Broadcaster) Authenticated() replay.Source[bool] { return b.authenticated }

// Admin reports whether the current user is an admin.
func (b *Broadcaster) Admin() replay.Source[bool] { return b.admin }

// Error carries the last failure message, or "" once an operation starts.
func (b *Broadcaster) Error() replay.Source[string] { return b.err }

// publishSnapshot emits user, organization, tokens, authenticated and admin,
// in that order.
func (b *Broadcaster) publishSnapshot(s domain.SessionState) {
	b.user.Publish(s.User.Clone())
	b.organization.Publish(s.Organization.Clone())
	b.tokens.Publish(s.Tokens.Clone())
	b.authenticated.Publish(s.IsAuthenticated)
	b.admin.Publish(s.IsAdmin)
}

// publishProfile emits user then the admin flag derived from it.
func (b *Broadcaster) publishProfile(s domain.SessionState) {
	b.user.Publish(s.User.Clone())
	b.admin.Publish(s.IsAdmin)
}

func (b *Broadcaster) publishTokens(s domain.SessionState) {
	b.tokens.Publish(s.Tokens.Clone())
}

func (b *Broadcaster) publishLoading(loading bool) {
	b.loading.Publish(loading)
}

func (b *Broadcaster) publishError(s domain.SessionState) {
	b.err.Publish(s.Error)
}
