package domain

import "time"

// Role is a user's role within an organization.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Organization is the tenant a user belongs to.
type Organization struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Domain    string     `json:"domain,omitempty"`
	Logo      string     `json:"logo,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy.
func (o *Organization) Clone() *Organization {
	if o == nil {
		return nil
	}
	c := *o
	c.CreatedAt = cloneTime(o.CreatedAt)
	c.UpdatedAt = cloneTime(o.UpdatedAt)
	return &c
}

// User is an authenticated identity.
//
// When Organization is embedded its ID equals OrganizationID.
type User struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	FirstName      string        `json:"firstName,omitempty"`
	LastName       string        `json:"lastName,omitempty"`
	Role           Role          `json:"role"`
	OrganizationID string        `json:"organizationId"`
	Organization   *Organization `json:"organization,omitempty"`
	IsActive       bool          `json:"isActive"`
	CreatedAt      *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time    `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
// A nil user is never admin.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName returns "First Last" when known, else the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}

// Validate checks the identity fields and the organization invariant.
func (u *User) Validate() error {
	if u == nil {
		return ErrValidation.WithDetails("user is missing")
	}
	if u.ID == "" {
		return ErrValidation.WithDetails("user id is missing")
	}
	if u.Organization != nil && u.Organization.ID != u.OrganizationID {
		return ErrValidation.WithDetails("user organization id does not match embedded organization")
	}
	return nil
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Organization = u.Organization.Clone()
	c.CreatedAt = cloneTime(u.CreatedAt)
	c.UpdatedAt = cloneTime(u.UpdatedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
