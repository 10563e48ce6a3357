package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/axelarscope/dashboard/app/dashboard/types"
	"github.com/axelarscope/dashboard/pkg/utils"
)

type Controller struct {
	App *types.App
	// AdminToken authorizes cache administration as a bearer token. Empty disables token auth.
	AdminToken string
	// Users may sign in for a session cookie. Empty unless ADMIN_PASSWORD or ADMIN_USERS is set.
	Users     map[string]User
	JWTSecret []byte
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminPass := utils.Env("ADMIN_PASSWORD", "")
	adminUsersJSON := utils.Env("ADMIN_USERS", "")

	users := map[string]User{}
	if adminPass != "" {
		phash, err := utils.HashOrRead(adminPass)
		if err != nil {
			app.Logger.Error("Unable to hash ADMIN_PASSWORD", zap.Error(err))
		} else {
			users[adminUser] = User{Username: adminUser, Hash: phash, Role: "admin"}
		}
	}
	if adminUsersJSON != "" {
		if err := json.Unmarshal([]byte(adminUsersJSON), &users); err != nil {
			app.Logger.Error("Ignoring malformed ADMIN_USERS", zap.Error(err))
		}
	}

	return &Controller{
		App:        app,
		AdminToken: utils.Env("ADMIN_TOKEN", ""),
		Users:      users,
		JWTSecret:  []byte(utils.Env("SESSION_SECRET", "change-me-please")),
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pages", c.HandleListPages).Methods(http.MethodGet)
	api.HandleFunc("/pages/{page}", c.HandlePage).Methods(http.MethodGet)
	api.HandleFunc("/queries", c.HandleListQueries).Methods(http.MethodGet)
	api.HandleFunc("/queries/{query}", c.HandleQuery).Methods(http.MethodGet)
	api.HandleFunc("/ws/pages/{page}", c.HandlePageStream).Methods(http.MethodGet)

	api.HandleFunc("/auth/login", c.HandleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", c.HandleLogout).Methods(http.MethodPost)

	api.HandleFunc("/cache/stats", c.HandleCacheStats).Methods(http.MethodGet)
	api.Handle("/cache/clear", c.RequireAdmin(http.HandlerFunc(c.HandleCacheClear))).Methods(http.MethodPost)

	return r, nil
}
