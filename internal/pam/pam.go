//go:build pam

// Package pam verifies passwords against the host's PAM stack.
package pam

import (
	"context"
	"errors"
	"fmt"

	"github.com/msteinert/pam/v2"

	"github.com/msomdec/sysmgr/internal/domain"
)

// Authenticator implements domain.ExternalAuthenticator for one PAM service.
type Authenticator struct {
	service string
}

// New returns an Authenticator for the named PAM service (a file under /etc/pam.d).
func New(service string) (*Authenticator, error) {
	if service == "" {
		return nil, errors.New("pam: service name is required")
	}
	return &Authenticator{service: service}, nil
}

// Authenticate runs the service's auth stack for login, answering every
// hidden prompt with password.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (domain.AuthReturnCode, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuthServiceError, err
	}

	tx, err := pam.StartFunc(a.service, login, func(style pam.Style, msg string) (string, error) {
		switch style {
		case pam.PromptEchoOff:
			return password, nil
		case pam.PromptEchoOn:
			return login, nil
		case pam.ErrorMsg, pam.TextInfo:
			return "", nil
		default:
			return "", fmt.Errorf("unsupported PAM message style %d", style)
		}
	})
	if err != nil {
		return domain.AuthServiceError, fmt.Errorf("pam start %s: %w", a.service, err)
	}
	defer tx.End()

	err = tx.Authenticate(0)
	switch {
	case err == nil:
	case errors.Is(err, pam.ErrUserUnknown):
		return domain.AuthUserUnknown, nil
	case errors.Is(err, pam.ErrAuth):
		return domain.AuthFailure, nil
	default:
		return domain.AuthServiceError, fmt.Errorf("pam authenticate: %w", err)
	}

	if err := tx.AcctMgmt(0); err != nil {
		return domain.AuthFailure, nil
	}
	return domain.AuthSuccess, nil
}
