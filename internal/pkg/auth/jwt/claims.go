package jwt

import "github.com/golang-jwt/jwt/v5"

// Payload defines the JWT claims issued at login and registration.
// Only the account id and role are embedded; the rest of the identity is
// resolved from the user store at verification time.
type Payload struct {
	jwt.RegisteredClaims

	// ID is the account identifier. It mirrors the registered "sub" claim.
	ID string `json:"id"`

	// Role is the account role at issuance time. Informational only; the role
	// used for authorization always comes from the stored account.
	Role string `json:"role"`
}

// subject returns the account id carried by the claims.
func (p *Payload) subject() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Subject
}
