package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/logx"
	"rosterhub/internal/pkg/req"
	"rosterhub/internal/pkg/resp"
)

// HandleListUsers returns every account. Admin only.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := deps.Users.ListAccounts(r.Context())
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}
		resp.RespondSuccess(w, r, map[string]any{"users": accounts})
	}
}

// HandleGetUser returns one account. Admin only.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := deps.Users.GetAccount(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondAccountError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, map[string]any{"user": account})
	}
}

// HandleUpdateUser edits any account, including its role. Admin only.
// Demoting an administrator ends their live sessions so their presence and
// privileges do not outlive the change.
func HandleUpdateUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var update user.Update
		if customErr := req.BindJSON(r, &update); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := normalizeUpdate(&update); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		before, err := deps.Users.GetAccount(r.Context(), id)
		if err != nil {
			respondAccountError(w, r, err)
			return
		}

		account, err := deps.Users.UpdateAccount(r.Context(), id, update)
		if err != nil {
			respondAccountError(w, r, err)
			return
		}
		deps.invalidateIdentity(r.Context(), account.ID)

		if before.Role == user.RoleAdmin && account.Role != user.RoleAdmin {
			actor := jwt.GetIdentityFromContext(r)
			logx.Warn("Administrator demoted", "user_id", account.ID, "by", actor.ID)
			deps.Lifecycle.ForceDisconnect(account.ID, "Role changed.")
		}

		resp.RespondSuccess(w, r, map[string]any{"user": account})
	}
}

// HandleDeleteUser removes an account and terminates its connections. Admin only;
// an administrator cannot delete their own account.
func HandleDeleteUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		actor := jwt.GetIdentityFromContext(r)
		if actor != nil && actor.ID == id {
			resp.RespondError(w, r, errs.NewError(errs.ErrCannotDeleteSelf))
			return
		}

		if err := deps.Users.DeleteAccount(r.Context(), id); err != nil {
			respondAccountError(w, r, err)
			return
		}
		deps.invalidateIdentity(r.Context(), id)

		kicked := deps.Lifecycle.ForceDisconnect(id, "Account deleted.")
		logx.Info("Account deleted", "user_id", id, "was_online", kicked)

		resp.RespondSuccess(w, r, map[string]any{"id": id})
	}
}
