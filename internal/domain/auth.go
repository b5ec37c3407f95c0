package domain

import "context"

// AuthReturnCode is the outcome reported by an external authentication service.
type AuthReturnCode int

const (
	AuthSuccess AuthReturnCode = iota
	AuthFailure
	AuthUserUnknown
	AuthServiceError
)

func (c AuthReturnCode) String() string {
	switch c {
	case AuthSuccess:
		return "success"
	case AuthFailure:
		return "authentication failure"
	case AuthUserUnknown:
		return "user unknown"
	case AuthServiceError:
		return "service error"
	default:
		return "unknown"
	}
}

// ExternalAuthenticator verifies credentials against a service outside the
// application, such as a PAM stack.
type ExternalAuthenticator interface {
	Authenticate(ctx context.Context, login, password string) (AuthReturnCode, error)
}
