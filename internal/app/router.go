package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/ai-secretary/ai-secretary/internal/auth"
	"github.com/ai-secretary/ai-secretary/internal/clients"
	"github.com/ai-secretary/ai-secretary/internal/clients/csvimport"
	"github.com/ai-secretary/ai-secretary/internal/companies"
	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/messages"
	"github.com/ai-secretary/ai-secretary/internal/observability"
	"github.com/ai-secretary/ai-secretary/internal/shared"
	"github.com/ai-secretary/ai-secretary/jobs"
	"github.com/ai-secretary/ai-secretary/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	SessionManager      *shared.SessionManager
	CSRFManager         *shared.CSRFManager
	AuthHandler         *auth.Handler
	CompanyHandler      *companies.Handler
	CustomFieldsHandler *customfields.Handler
	ClientsHandler      *clients.Handler
	ImportHandler       *csvimport.Handler
	MessagesHandler     *messages.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AuthHandler != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))
			params.AuthHandler.MountRoutes(r)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireTenant)
		if params.CompanyHandler != nil {
			params.CompanyHandler.MountRoutes(r)
		}
		if params.CustomFieldsHandler != nil {
			params.CustomFieldsHandler.MountRoutes(r)
		}
		if params.ClientsHandler != nil {
			params.ClientsHandler.MountRoutes(r)
		}
		if params.ImportHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(20, time.Minute))
				params.ImportHandler.MountRoutes(r)
			})
		}
		if params.MessagesHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(30, time.Minute))
				params.MessagesHandler.MountRoutes(r)
			})
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
