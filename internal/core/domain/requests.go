package domain

// LoginRequest holds login credentials.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// Validate checks required fields.
func (r LoginRequest) Validate() error {
	if r.Email == "" {
		return ErrValidation.WithMessage("Email is required")
	}
	if r.Password == "" {
		return ErrValidation.WithMessage("Password is required")
	}
	return nil
}

// SignupRequest registers a user together with a new organization.
type SignupRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	ConfirmPassword    string `json:"confirmPassword"`
	OrganizationName   string `json:"organizationName"`
	OrganizationDomain string `json:"organizationDomain,omitempty"`
	FirstName          string `json:"firstName,omitempty"`
	LastName           string `json:"lastName,omitempty"`
}

// Validate checks required fields and the password confirmation.
func (r SignupRequest) Validate() error {
	switch {
	case r.Email == "":
		return ErrValidation.WithMessage("Email is required")
	case r.Password == "":
		return ErrValidation.WithMessage("Password is required")
	case r.OrganizationName == "":
		return ErrValidation.WithMessage("Organization name is required")
	case r.Password != r.ConfirmPassword:
		return ErrValidation.WithMessage("Passwords do not match")
	}
	return nil
}

// PasswordResetRequest asks for a password reset email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// Validate checks required fields.
func (r PasswordResetRequest) Validate() error {
	if r.Email == "" {
		return ErrValidation.WithMessage("Email is required")
	}
	return nil
}

// NewPasswordRequest completes a password reset.
type NewPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks required fields and the password confirmation.
func (r NewPasswordRequest) Validate() error {
	switch {
	case r.Token == "":
		return ErrValidation.WithMessage("Reset token is required")
	case r.NewPassword == "":
		return ErrValidation.WithMessage("New password is required")
	case r.NewPassword != r.ConfirmPassword:
		return ErrValidation.WithMessage("Passwords do not match")
	}
	return nil
}

// InviteUserRequest invites a user into the caller's organization.
type InviteUserRequest struct {
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Validate checks required fields and the role.
func (r InviteUserRequest) Validate() error {
	if r.Email == "" {
		return ErrValidation.WithMessage("Email is required")
	}
	if !r.Role.Valid() {
		return ErrValidation.WithMessage("Role must be ADMIN or USER").WithDetails(string(r.Role))
	}
	return nil
}
