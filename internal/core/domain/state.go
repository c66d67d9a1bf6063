package domain

// SessionState is the observable session snapshot.
//
// IsAuthenticated and IsAdmin are derived; build values with NewSessionState
// or EmptySessionState so they never disagree with User and Tokens.
type SessionState struct {
	User            *User         `json:"user"`
	Organization    *Organization `json:"organization"`
	Tokens          *TokenSet     `json:"-"`
	IsLoading       bool          `json:"isLoading"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	IsAdmin         bool          `json:"isAdmin"`
	Error           string        `json:"error,omitempty"`
}

// NewSessionState builds a state with derived flags computed from its inputs.
func NewSessionState(user *User, org *Organization, tokens *TokenSet) SessionState {
	return SessionState{
		User:            user,
		Organization:    org,
		Tokens:          tokens,
		IsAuthenticated: tokens != nil && user != nil,
		IsAdmin:         user.IsAdmin(),
	}
}

// EmptySessionState returns the logged-out state.
func EmptySessionState() SessionState {
	return SessionState{}
}

// WithUser returns a copy with User replaced and the flags recomputed.
func (s SessionState) WithUser(user *User) SessionState {
	next := NewSessionState(user, s.Organization, s.Tokens)
	next.IsLoading = s.IsLoading
	next.Error = s.Error
	return next
}

// WithTokens returns a copy with Tokens replaced and the flags recomputed.
func (s SessionState) WithTokens(tokens *TokenSet) SessionState {
	next := NewSessionState(s.User, s.Organization, tokens)
	next.IsLoading = s.IsLoading
	next.Error = s.Error
	return next
}

// Clone returns a deep copy.
func (s SessionState) Clone() SessionState {
	s.User = s.User.Clone()
	s.Organization = s.Organization.Clone()
	s.Tokens = s.Tokens.Clone()
	return s
}
