//go:build !pam

// Package pam verifies passwords against the host's PAM stack.
//
// PAM needs cgo and the libpam headers, so the real adapter is only compiled
// with the "pam" build tag. Without it New always fails.
package pam

import (
	"context"
	"errors"

	"github.com/msomdec/sysmgr/internal/domain"
)

// ErrUnsupported is returned by New when the binary was built without PAM.
var ErrUnsupported = errors.New("pam: built without PAM support (rebuild with -tags pam)")

// Authenticator implements domain.ExternalAuthenticator for one PAM service.
type Authenticator struct{}

// New reports ErrUnsupported.
func New(service string) (*Authenticator, error) {
	return nil, ErrUnsupported
}

// Authenticate always reports a service error.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (domain.AuthReturnCode, error) {
	return domain.AuthServiceError, ErrUnsupported
}
