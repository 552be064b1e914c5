package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"rosterhub/internal/app/realtime"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/limiter"
	"rosterhub/internal/pkg/logx"
	"rosterhub/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The handshake is rate limited and authenticated before the upgrade, so a hard-policy
// rejection is an ordinary HTTP error and never touches presence.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if deps.WSLimiter != nil && !deps.WSLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		outcome := deps.Authenticator.Authenticate(r)
		if outcome.Reject {
			resp.RespondError(w, r, jwt.ToCustomError(outcome.Err))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := realtime.NewClient(conn, outcome.Identity, deps.Lifecycle)
		deps.Lifecycle.Connect(client)

		logx.Info("WebSocket connection established", "conn_id", client.ID(), "authenticated", outcome.Identity != nil)

		client.Run()
	}
}
