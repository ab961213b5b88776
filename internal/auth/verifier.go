package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Verifier validates caller identity and request integrity for the
// publish endpoint. Both checks must pass before a request is
// admitted; failures are terminal for the request and never retried.
type Verifier struct {
	provider IdentityProvider
	keeper   *SecretKeeper
	logger   *slog.Logger
}

// NewVerifier creates a Verifier with the given collaborators.
func NewVerifier(provider IdentityProvider, keeper *SecretKeeper, logger *slog.Logger) *Verifier {
	return &Verifier{
		provider: provider,
		keeper:   keeper,
		logger:   logger,
	}
}

// Authenticate extracts Basic-Auth credentials from the request and
// delegates the check to the identity provider. Returns
// ErrUnauthorized for missing/malformed/rejected credentials and
// ErrForbidden when the identity lacks the publish capability.
func (v *Verifier) Authenticate(r *http.Request) (*Identity, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, fmt.Errorf("%w: missing or malformed credentials", ErrUnauthorized)
	}

	identity, err := v.provider.Authenticate(r.Context(), username, password)
	if err != nil {
		return nil, err
	}

	if !identity.CanPublish {
		v.logger.Warn("authenticated caller lacks publish capability",
			"username", identity.Username)
		return nil, ErrForbidden
	}

	return identity, nil
}

// VerifyBody checks the request body signature against the stored
// webhook secret, initializing the secret on first use.
func (v *Verifier) VerifyBody(ctx context.Context, body []byte, signatureHeader string) error {
	secret, err := v.keeper.Secret(ctx)
	if err != nil {
		return fmt.Errorf("failed to load signing secret: %w", err)
	}

	return VerifySignature(body, signatureHeader, secret)
}
