package realtime

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/logx"
)

// Outcome is the result of authenticating a handshake.
type Outcome struct {
	// Identity is nil for an anonymous connection.
	Identity *user.Identity

	// Reject means the connection attempt must be refused before any data exchange.
	Reject bool

	// Err is the verification failure, if any. It is set for rejected attempts and
	// for soft-policy attempts that fell back to anonymous.
	Err error
}

// Authenticator resolves the identity of a WebSocket handshake according to a policy.
type Authenticator struct {
	verifier *jwt.Verifier
	policy   jwt.Policy
	logger   zerolog.Logger
}

// NewAuthenticator creates an Authenticator applying policy to failed or missing credentials.
func NewAuthenticator(verifier *jwt.Verifier, policy jwt.Policy) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		policy:   policy,
		logger:   logx.Component("ws_auth").With().Str("policy", policy.String()).Logger(),
	}
}

// Policy returns the configured policy.
func (a *Authenticator) Policy() jwt.Policy {
	return a.policy
}

// Authenticate verifies the handshake credential. The user lookup runs with the
// request context, so a stalled store only delays this handshake.
func (a *Authenticator) Authenticate(r *http.Request) Outcome {
	identity, err := a.verifier.Verify(r.Context(), jwt.HandshakeCredential(r))
	if err == nil {
		return Outcome{Identity: identity}
	}

	var authErr *jwt.AuthError
	isAuthErr := errors.As(err, &authErr)

	if a.policy == jwt.PolicySoft {
		if isAuthErr && authErr.Kind == jwt.KindMissing {
			a.logger.Debug().Msg("Handshake without credential. Admitting anonymously.")
		} else {
			a.logger.Info().Err(err).Msg("Handshake credential rejected. Admitting anonymously.")
		}
		return Outcome{Err: err}
	}

	if isAuthErr {
		a.logger.Warn().Str("kind", authErr.Kind.String()).Msg("Handshake credential rejected.")
	} else {
		a.logger.Error().Err(err).Msg("Handshake verification failed.")
	}
	return Outcome{Reject: true, Err: err}
}
