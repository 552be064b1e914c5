/*
Package handler provides the HTTP and WebSocket handlers of the roster service.
*/
package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"rosterhub/internal/app/activity"
	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/logx"
	"rosterhub/internal/pkg/req"
	"rosterhub/internal/pkg/resp"
)

const (
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
)

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// sessionResponse is returned by register and login.
type sessionResponse struct {
	Token string        `json:"token"`
	User  user.Identity `json:"user"`
}

func validPassword(p string) bool {
	n := utf8.RuneCountInString(p)
	return n >= minPasswordLen && len(p) <= maxPasswordLen
}

// HandleRegister creates an account. The very first account becomes an administrator,
// every later one a regular user.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.FirstName = strings.TrimSpace(input.FirstName)
		input.LastName = strings.TrimSpace(input.LastName)
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))

		if input.FirstName == "" || input.LastName == "" || !user.ValidEmail(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !validPassword(input.Password) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		account, err := deps.Users.CreateAccount(r.Context(), user.NewAccount{
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Email:        input.Email,
			PasswordHash: string(hashedPassword),
		})
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				logx.Warn("registration conflict: email already exists", "email", input.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		token, err := deps.issueToken(account.Identity)
		if err != nil {
			logx.Error(err, "failed to generate token after registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		logx.Info("Account registered", "user_id", account.ID, "role", string(account.Role))
		resp.RespondCreated(w, r, sessionResponse{Token: token, User: account.Identity})
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies user credentials, issues a JWT token and records a LOGIN entry.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		email := strings.ToLower(strings.TrimSpace(input.Email))
		if email == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		account, err := deps.Users.FindAccountByEmail(r.Context(), email)
		if err != nil {
			if !errors.Is(err, user.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
				return
			}
			logx.Warn("login: unknown email", "email", email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "user_id", account.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		token, err := deps.issueToken(account.Identity)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.recordActivity(r, account.ID, activity.ActionLogin, nil)

		resp.RespondSuccess(w, r, sessionResponse{Token: token, User: account.Identity})
	}
}

// HandleGetProfile returns the caller's account.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetIdentityFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		account, err := deps.Users.GetAccount(r.Context(), identity.ID)
		if err != nil {
			respondAccountError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": account})
	}
}

type UpdateProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
}

// HandleUpdateProfile lets the caller change their own name and email.
// A fresh token is returned so the client picks up the new claims.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetIdentityFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		update := user.Update{FirstName: input.FirstName, LastName: input.LastName, Email: input.Email}
		if customErr := normalizeUpdate(&update); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.Users.UpdateAccount(r.Context(), identity.ID, update)
		if err != nil {
			respondAccountError(w, r, err)
			return
		}
		deps.invalidateIdentity(r.Context(), account.ID)

		data := map[string]any{"user": account}

		token, err := deps.issueToken(account.Identity)
		if err != nil {
			logx.Error(err, "update_profile: token generation failed, fallback to old token")
		} else {
			data["token"] = token
		}

		resp.RespondSuccess(w, r, data)
	}
}

// normalizeUpdate trims the given fields and rejects blank names, malformed
// emails and unknown roles.
func normalizeUpdate(u *user.Update) *errs.CustomError {
	for _, f := range []*string{u.FirstName, u.LastName} {
		if f == nil {
			continue
		}
		*f = strings.TrimSpace(*f)
		if *f == "" {
			return errs.NewError(errs.ErrInvalidParams)
		}
	}

	if u.Email != nil {
		*u.Email = strings.ToLower(strings.TrimSpace(*u.Email))
		if !user.ValidEmail(*u.Email) {
			return errs.NewError(errs.ErrInvalidParams)
		}
	}

	if u.Role != nil && !u.Role.Valid() {
		return errs.NewError(errs.ErrInvalidRole)
	}

	if u.FirstName == nil && u.LastName == nil && u.Email == nil && u.Role == nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

func respondAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
	case errors.Is(err, user.ErrEmailTaken):
		resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
	default:
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
	}
}
