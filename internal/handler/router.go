package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/logx"
	"rosterhub/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It configures CORS, applies global middleware, and mounts the REST API under /api
// and the realtime channel at /ws. Every /api route except register and login
// requires a valid token.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.RespondError(w, r, errs.NewError(errs.ErrNotFound))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":      "ok",
			"service":     "RosterHub",
			"connections": deps.Lifecycle.Hub().Count(),
		}
		resp.RespondSuccess(w, r, data)
	})

	requireAuth := jwt.Authenticate(deps.Verifier, jwt.PolicyHard)

	r.Route("/api", func(api chi.Router) {
		api.Route("/users", func(users chi.Router) {
			users.Post("/register", HandleRegister(deps))

			login := http.Handler(HandleLogin(deps))
			if deps.LoginLimiter != nil {
				login = deps.LoginLimiter.Middleware(login)
			}
			users.Method(http.MethodPost, "/login", login)

			users.Group(func(authed chi.Router) {
				authed.Use(requireAuth)
				authed.Get("/profile", HandleGetProfile(deps))
				authed.Put("/profile", HandleUpdateProfile(deps))

				authed.Group(func(admin chi.Router) {
					admin.Use(jwt.RequireAdmin)
					admin.Get("/", HandleListUsers(deps))
					admin.Get("/{id}", HandleGetUser(deps))
					admin.Put("/{id}", HandleUpdateUser(deps))
					admin.Delete("/{id}", HandleDeleteUser(deps))
				})
			})
		})

		api.Route("/students", func(students chi.Router) {
			students.Use(requireAuth)
			students.Get("/", HandleListStudents(deps))
			students.Get("/check-email", HandleCheckStudentEmail(deps))
			students.Get("/{id}", HandleGetStudent(deps))
			students.Get("/{id}/photo", HandleDownloadStudentPhoto(deps))

			students.Group(func(admin chi.Router) {
				admin.Use(jwt.RequireAdmin)
				admin.Post("/", HandleCreateStudent(deps))
				admin.Put("/{id}", HandleUpdateStudent(deps))
				admin.Delete("/{id}", HandleDeleteStudent(deps))
				admin.Post("/{id}/photo/presign", HandlePresignStudentPhoto(deps))
				admin.Put("/{id}/photo", HandleSetStudentPhoto(deps))
			})
		})

		api.Route("/logs", func(logs chi.Router) {
			logs.Use(requireAuth)
			logs.Post("/", HandleCreateLog(deps))
			logs.Get("/", HandleListLogs(deps))
			logs.Get("/me", HandleListMyLogs(deps))
			logs.Get("/type/{actionType}", HandleListLogsByType(deps))
			logs.Delete("/{id}", HandleDeleteLog(deps))
			logs.With(jwt.RequireAdmin).Delete("/", HandleClearLogs(deps))
		})

		api.Route("/chat", func(chatRoutes chi.Router) {
			chatRoutes.Use(requireAuth)
			chatRoutes.Get("/messages", HandleListMessages(deps))
			chatRoutes.Post("/messages", HandleSendMessage(deps))
			chatRoutes.Get("/online-users", HandleOnlineUsers(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader))

	return r
}
