package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/draftwire/draftwire/internal/config"
)

// Identity describes an authenticated caller.
type Identity struct {
	Username   string
	CanPublish bool
}

// IdentityProvider is the collaborator that owns credential checks.
// The gateway delegates the username/password decision entirely; it
// only interprets the result.
type IdentityProvider interface {
	// Authenticate checks the credential pair. Returns ErrUnauthorized
	// if the username is unknown or the password does not match.
	Authenticate(ctx context.Context, username, password string) (*Identity, error)

	// Lookup returns the identity for a username without a credential
	// check, for author-existence validation at admission.
	Lookup(ctx context.Context, username string) (*Identity, error)
}

// StaticProvider is an IdentityProvider backed by the configured
// identity list. Passwords are stored as bcrypt hashes only.
type StaticProvider struct {
	identities map[string]config.Identity
}

// NewStaticProvider creates a StaticProvider from configured identities.
func NewStaticProvider(identities []config.Identity) *StaticProvider {
	m := make(map[string]config.Identity, len(identities))
	for _, id := range identities {
		m[id.Username] = id
	}
	return &StaticProvider{identities: m}
}

// Authenticate implements IdentityProvider using bcrypt comparison.
func (p *StaticProvider) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	id, ok := p.identities[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: password rejected", ErrUnauthorized)
	}

	return &Identity{Username: id.Username, CanPublish: id.CanPublish}, nil
}

// Lookup implements IdentityProvider.
func (p *StaticProvider) Lookup(ctx context.Context, username string) (*Identity, error) {
	id, ok := p.identities[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	return &Identity{Username: id.Username, CanPublish: id.CanPublish}, nil
}
