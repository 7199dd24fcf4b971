package model

// UserProfile is the authenticated user as reported by the server.
// The authoritative copy lives in the session; it is refreshed
// opportunistically after login and after every token refresh.
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar,omitempty"`
	Verified bool   `json:"verified"`
	IsActive bool   `json:"isActive"`
}

// Session holds the credentials and profile for the current login.
// Created empty at process start, populated on login/register/refresh,
// fully cleared on logout or irrecoverable refresh failure.
type Session struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *UserProfile `json:"user"`

	// RefreshTokenExpiresAt is the exp claim of the refresh token in
	// epoch seconds, zero when unknown. Derived on login/refresh and
	// again on load, never persisted.
	RefreshTokenExpiresAt int64 `json:"-"`
}

// Authenticated reports whether the session carries credentials.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}
