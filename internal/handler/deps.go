package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rosterhub/internal/app/activity"
	"rosterhub/internal/app/chat"
	"rosterhub/internal/app/realtime"
	"rosterhub/internal/app/storage"
	"rosterhub/internal/app/student"
	"rosterhub/internal/app/user"
	"rosterhub/internal/configs"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/limiter"
	"rosterhub/internal/pkg/logx"
)

// IdentityInvalidator drops cached identities after an account changes.
type IdentityInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// AppDeps carries everything the handlers need. Storage and IdentityCache are
// nil when the corresponding backend is not configured.
type AppDeps struct {
	Config *configs.AppConfig

	Users    user.AccountStore
	Students student.Store
	Activity activity.Store
	Chat     chat.Store

	Storage       storage.StorageService
	IdentityCache IdentityInvalidator

	Verifier      *jwt.Verifier
	Authenticator *realtime.Authenticator
	Lifecycle     *realtime.Lifecycle
	Broadcaster   realtime.Publisher

	LoginLimiter *limiter.IPRateLimiter
	WSLimiter    *limiter.IPRateLimiter
}

// invalidateIdentity evicts id from the identity cache, if there is one.
func (deps *AppDeps) invalidateIdentity(ctx context.Context, id string) {
	if deps.IdentityCache == nil {
		return
	}
	if err := deps.IdentityCache.Invalidate(ctx, id); err != nil {
		logx.Warn("Failed to invalidate cached identity", "user_id", id, "error", err.Error())
	}
}

// recordActivity writes an activity entry for the caller. Failures are logged and
// never fail the request that triggered them.
func (deps *AppDeps) recordActivity(r *http.Request, userID string, action activity.ActionType, s *student.Student) {
	rec := activity.Record{
		UserID:     userID,
		ActionType: action,
		IPAddress:  limiter.ClientIP(r),
	}
	if s != nil {
		id, name := s.ID, s.FullName()
		rec.StudentID = &id
		rec.StudentName = &name
	}

	if _, err := deps.Activity.AddEntry(r.Context(), rec); err != nil {
		logx.Error(err, "Failed to record activity", "user_id", userID, "action", string(action))
	}
}

// issueToken signs a session token for identity.
func (deps *AppDeps) issueToken(identity user.Identity) (string, error) {
	return jwt.GenerateToken(identity, deps.Config.JWTSecret, deps.Config.TokenTTL)
}

// int64Param parses a positive integer URL parameter.
func int64Param(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}
