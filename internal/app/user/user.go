/*
Package user contains the account and identity types shared by authentication,
presence and the HTTP handlers.

Identity is the fixed-shape public view of an account. It is resolved once when a
connection or request is authenticated and is never re-validated afterwards.
*/
package user

import (
	"context"
	"errors"
	"net/mail"
	"time"
)

// Role is the enumerated access level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var (
	// ErrNotFound is returned by a Lookup or AccountStore when no account matches.
	ErrNotFound = errors.New("user: not found")

	// ErrEmailTaken is returned by an AccountStore when the email is already registered.
	ErrEmailTaken = errors.New("user: email already registered")
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ValidEmail reports whether s is a bare address such as "ada@example.com".
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Identity is the denormalized public profile of an authenticated user.
type Identity struct {
	ID        string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// DisplayName joins the first and last name.
func (i Identity) DisplayName() string {
	switch {
	case i.FirstName == "":
		return i.LastName
	case i.LastName == "":
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}

// Account is the persisted user record.
type Account struct {
	Identity
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Lookup resolves a user id to its current identity.
// Implementations return ErrNotFound (possibly wrapped) for unknown ids.
type Lookup interface {
	FindUserByID(ctx context.Context, id string) (*Identity, error)
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(ctx context.Context, id string) (*Identity, error)

// FindUserByID calls f.
func (f LookupFunc) FindUserByID(ctx context.Context, id string) (*Identity, error) {
	return f(ctx, id)
}

// NewAccount is the input of account creation. Password hashing happens before the store.
// The store assigns the role: the first account ever created is an admin, every later one a user.
type NewAccount struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// Update changes profile fields of an account. Nil fields are left unchanged; Role
// is only honoured for administrator edits.
type Update struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Role      *Role   `json:"role"`
}

// AccountStore persists accounts.
type AccountStore interface {
	Lookup

	CreateAccount(ctx context.Context, in NewAccount) (*Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdateAccount(ctx context.Context, id string, u Update) (*Account, error)
	DeleteAccount(ctx context.Context, id string) error
}
