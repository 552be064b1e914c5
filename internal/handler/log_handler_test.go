package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterhub/internal/app/activity"
	"rosterhub/internal/app/chat"
	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/errs"
)

func TestLogs(t *testing.T) {
	env := newTestEnv(t)
	me, token := env.seedAccount(t, "me@example.com", user.RoleUser)
	_, adminToken := env.seedAccount(t, "admin@example.com", user.RoleAdmin)

	status, body := doJSON(t, http.MethodPost, env.url("/api/logs/"), token, map[string]any{"actionType": "FLY"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrLogActionInvalid, body.Code)

	name := "Marie Curie"
	status, body = doJSON(t, http.MethodPost, env.url("/api/logs/"), token, map[string]any{
		"actionType": "DOWNLOAD", "studentId": 99, "studentName": name,
	})
	require.Equal(t, http.StatusCreated, status)
	entry := decodeData[activity.Entry](t, body)
	assert.Equal(t, me.ID, entry.UserID)

	status, _ = doJSON(t, http.MethodPost, env.url("/api/logs/"), adminToken, map[string]any{"actionType": "OTHER"})
	require.Equal(t, http.StatusCreated, status)

	list := func(path, token string) []activity.View {
		status, body := doJSON(t, http.MethodGet, env.url(path), token, nil)
		require.Equal(t, http.StatusOK, status, path)
		return decodeData[map[string][]activity.View](t, body)["logs"]
	}

	assert.Len(t, list("/api/logs/", token), 2)
	mine := list("/api/logs/me", token)
	require.Len(t, mine, 1)
	assert.Equal(t, activity.ActionDownload, mine[0].ActionType)
	assert.Len(t, list("/api/logs/type/OTHER", token), 1)

	status, _ = doJSON(t, http.MethodGet, env.url("/api/logs/type/other"), token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, http.MethodDelete, env.url("/api/logs/missing"), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errs.ErrLogNotFound, body.Code)

	status, _ = doJSON(t, http.MethodDelete, env.url("/api/logs/"+entry.ID), token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodDelete, env.url("/api/logs/"), token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, http.MethodDelete, env.url("/api/logs/"), adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), decodeData[map[string]int64](t, body)["deleted"])
}

func TestChatMessages(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedAccount(t, "me@example.com", user.RoleUser)

	status, body := doJSON(t, http.MethodPost, env.url("/api/chat/messages"), token, SendMessageInput{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrMessageEmpty, body.Code)

	for _, m := range []string{"one", "two", "three"} {
		status, _ := doJSON(t, http.MethodPost, env.url("/api/chat/messages"), token, SendMessageInput{Message: m})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body = doJSON(t, http.MethodGet, env.url("/api/chat/messages?limit=2"), token, nil)
	require.Equal(t, http.StatusOK, status)
	page := decodeData[struct {
		Messages []chat.Message `json:"messages"`
	}](t, body)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "two", page.Messages[0].Message)
	assert.Equal(t, "three", page.Messages[1].Message)

	status, body = doJSON(t, http.MethodGet, env.url("/api/chat/messages?page=9223372036854775807"), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeData[struct {
		Messages []chat.Message `json:"messages"`
	}](t, body).Messages)

	status, body = doJSON(t, http.MethodGet, env.url("/api/chat/online-users"), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeData[map[string][]user.Identity](t, body)["users"])
}

func TestHealthAndNotFound(t *testing.T) {
	env := newTestEnv(t)

	status, body := doJSON(t, http.MethodGet, env.url("/health"), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decodeData[map[string]any](t, body)["status"])

	status, body = doJSON(t, http.MethodGet, env.url("/nope"), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errs.ErrNotFound, body.Code)
}
