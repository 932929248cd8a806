package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/oggyb/tinderito/internal/app"
	svcErr "github.com/oggyb/tinderito/internal/errors"
	"github.com/oggyb/tinderito/internal/utils/respond"
)

// publicPaths never require a token.
var publicPaths = []string{"/register", "/login", "/healthz"}

// NewRouter wires middleware, static uploads and every registrar's routes.
//
// Middleware order (outermost first): request id, access log, panic rescue,
// CORS, real IP, request timeout, authentication.
func NewRouter(appCtx *app.AppContext, registrars ...Registrar) chi.Router {
	cfg := appCtx.Config
	log := appCtx.Logger

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(log))
	r.Use(Rescue(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.HTTP.CORSOrigins),
		MaxAge:           300,
	}))
	r.Use(middleware.RealIP)
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	}

	var uploadPrefix string
	if appCtx.Photos != nil {
		uploadPrefix = strings.TrimRight(appCtx.Photos.URLPrefix(), "/")
	}
	isPublic := func(path string) bool {
		if uploadPrefix != "" && strings.HasPrefix(path, uploadPrefix+"/") {
			return true
		}
		for _, p := range publicPaths {
			if path == p {
				return true
			}
		}
		return false
	}
	r.Use(Authenticate(appCtx.Tokens, cfg.Auth.Enforce, isPublic, log))

	if uploadPrefix != "" {
		files := http.StripPrefix(uploadPrefix, http.FileServer(http.Dir(appCtx.Photos.Dir())))
		r.Get(uploadPrefix+"/*", func(w http.ResponseWriter, req *http.Request) {
			// no directory listings
			if strings.HasSuffix(req.URL.Path, "/") {
				respond.Error(w, req, log, svcErr.NotFound("not found"))
				return
			}
			files.ServeHTTP(w, req)
		})
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond.Error(w, req, log, svcErr.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.M{"status": "error", "message": "method not allowed"})
	})

	for _, reg := range registrars {
		reg.Register(r)
	}

	return r
}

// NewHTTPServer builds the *http.Server listening on HTTP_HOST:PORT.
func NewHTTPServer(appCtx *app.AppContext, handler http.Handler) *http.Server {
	cfg := appCtx.Config
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
