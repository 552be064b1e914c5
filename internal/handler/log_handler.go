package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rosterhub/internal/app/activity"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/limiter"
	"rosterhub/internal/pkg/req"
	"rosterhub/internal/pkg/resp"
)

type CreateLogInput struct {
	ActionType  string  `json:"actionType"`
	StudentID   *int64  `json:"studentId"`
	StudentName *string `json:"studentName"`
}

// HandleCreateLog records an entry on behalf of the caller.
func HandleCreateLog(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateLogInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		action, ok := activity.ParseActionType(input.ActionType)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrLogActionInvalid))
			return
		}

		entry, err := deps.Activity.AddEntry(r.Context(), activity.Record{
			UserID:      jwt.GetIdentityFromContext(r).ID,
			ActionType:  action,
			StudentID:   input.StudentID,
			StudentName: input.StudentName,
			IPAddress:   limiter.ClientIP(r),
		})
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondCreated(w, r, entry)
	}
}

func listLogs(deps *AppDeps, w http.ResponseWriter, r *http.Request, f activity.Filter) {
	entries, err := deps.Activity.ListEntries(r.Context(), f)
	if err != nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
		return
	}
	resp.RespondSuccess(w, r, map[string]any{"logs": entries})
}

// HandleListLogs returns every entry, newest first.
func HandleListLogs(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listLogs(deps, w, r, activity.Filter{})
	}
}

// HandleListMyLogs returns the caller's entries.
func HandleListMyLogs(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listLogs(deps, w, r, activity.Filter{UserID: jwt.GetIdentityFromContext(r).ID})
	}
}

// HandleListLogsByType returns the entries of one action type.
func HandleListLogsByType(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, ok := activity.ParseActionType(chi.URLParam(r, "actionType"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrLogActionInvalid))
			return
		}
		listLogs(deps, w, r, activity.Filter{ActionType: action})
	}
}

// HandleDeleteLog removes one entry.
func HandleDeleteLog(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := deps.Activity.DeleteEntry(r.Context(), id); err != nil {
			if errors.Is(err, activity.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrLogNotFound))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"id": id})
	}
}

// HandleClearLogs removes every entry. Admin only.
func HandleClearLogs(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Activity.DeleteAllEntries(r.Context())
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}
		resp.RespondSuccess(w, r, map[string]int64{"deleted": n})
	}
}
