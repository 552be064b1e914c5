package handler

import (
	"net/http"

	"rosterhub/internal/app/chat"
	"rosterhub/internal/app/realtime"
	"rosterhub/internal/app/student"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/logx"
	"rosterhub/internal/pkg/req"
	"rosterhub/internal/pkg/resp"
)

// HandleListMessages returns a page of chat history. Page 1 is the newest page;
// messages inside a page are oldest first.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pageNumber(r)
		limit := pageSize(r, chat.DefaultPageSize)

		messages, total, err := deps.Chat.ListMessages(r.Context(), page, limit)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages":   messages,
			"pagination": student.NewPagination(page, limit, total),
		})
	}
}

type SendMessageInput struct {
	Message string `json:"message"`
}

// HandleSendMessage persists a message and broadcasts it to every connection.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		content, customErr := chat.NormalizeContent(input.Message)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		identity := jwt.GetIdentityFromContext(r)
		msg, err := deps.Chat.AddMessage(r.Context(), chat.AuthorFrom(*identity), content)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		logx.Debug("Chat message stored", "message_id", msg.ID, "user_id", identity.ID)
		deps.Broadcaster.Publish(realtime.EventChatMessage, msg)

		resp.RespondCreated(w, r, msg)
	}
}

// HandleOnlineUsers returns the current presence snapshot.
func HandleOnlineUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{"users": deps.Lifecycle.OnlineUsers()})
	}
}
