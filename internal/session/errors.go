package session

import "errors"

// Session error taxonomy. The three refresh errors are terminal: any
// of them tears the local session down. ErrNetwork is not terminal:
// a transient transport failure must never log the user out.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrRefreshTokenMissing = errors.New("no refresh token stored")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshRejected     = errors.New("refresh token rejected by server")
	ErrNetwork             = errors.New("network error")
)

// Terminal reports whether err must end the session.
func Terminal(err error) bool {
	return errors.Is(err, ErrRefreshTokenMissing) ||
		errors.Is(err, ErrRefreshTokenExpired) ||
		errors.Is(err, ErrRefreshRejected)
}
