package domain

// TokenSet is the credential pair issued by the auth API.
// ExpiresIn is passed through as received.
type TokenSet struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Validate checks that an access token is present.
func (t *TokenSet) Validate() error {
	if t == nil || t.AccessToken == "" {
		return ErrValidation.WithDetails("access token is missing")
	}
	return nil
}

// Clone returns a copy.
func (t *TokenSet) Clone() *TokenSet {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	User         *User  `json:"user"`
}

// Tokens returns the credential part of the response.
func (r *AuthResponse) Tokens() *TokenSet {
	return &TokenSet{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
	}
}

// Validate checks that the response carries tokens and a consistent user.
func (r *AuthResponse) Validate() error {
	if r == nil {
		return ErrValidation.WithDetails("empty auth response")
	}
	if err := r.Tokens().Validate(); err != nil {
		return err
	}
	return r.User.Validate()
}
