// Package server wires the REST routes onto a gorilla router and runs the
// HTTP server with CORS and request logging.
package server

import (
	"log"
	"net/http"
	"os"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/choreward/backend/server/handlers"
)

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %s\n", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// NewRouter builds the route table. uploadDir, when non-empty, is served
// under /uploads/ so stored task images resolve.
func NewRouter(h *handlers.Handler, uploadDir string) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(h.Authorize)
	authed.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/user/info", h.GetInfo).Methods(http.MethodGet)
	authed.HandleFunc("/week", h.GetWeek).Methods(http.MethodGet)
	authed.HandleFunc("/task", h.CreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/task/active", h.SyncActive).Methods(http.MethodPatch)
	authed.HandleFunc("/task/active/{taskId}", h.SetActive).Methods(http.MethodPatch)
	authed.HandleFunc("/task/complete/{taskId}", h.Complete).Methods(http.MethodPatch)
	authed.HandleFunc("/task/switch/{taskId}", h.Switch).Methods(http.MethodPatch)
	authed.HandleFunc("/gift", h.ListGifts).Methods(http.MethodGet)
	authed.HandleFunc("/gift/redeem", h.RedeemGifts).Methods(http.MethodPatch)

	if uploadDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))
	}

	corsOrigins := gorilla.AllowedOrigins([]string{"*"})
	corsMethods := gorilla.AllowedMethods([]string{"GET", "HEAD", "POST", "PATCH", "DELETE", "OPTIONS"})
	corsHeaders := gorilla.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})
	corsRouter := gorilla.CORS(corsOrigins, corsMethods, corsHeaders)(recoveryMiddleware(r))

	return gorilla.LoggingHandler(os.Stdout, corsRouter)
}

// Start blocks serving the router on addr.
func Start(addr string, router http.Handler) error {
	srv := &http.Server{
		Handler:      router,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return srv.ListenAndServe()
}
