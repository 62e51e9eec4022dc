// Package httpapi exposes the pkm service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pkm/internal/config"
	"pkm/internal/pkm"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger pkm.Logger
}

type api struct {
	svc    *pkm.Service
	logger pkm.Logger
}

// NewRouter builds the router with global middlewares and every route.
// A zero requestTimeout disables the per-request deadline.
func NewRouter(svc *pkm.Service, logger pkm.Logger, requestTimeout time.Duration) http.Handler {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	a := &api{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}
	r.Use(accessLog(logger))

	r.Get("/healthz", healthz)
	r.Get("/s/{code}", a.redirectShortURL)

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireOwner)

		r.Route("/bookmarks", func(r chi.Router) {
			r.Post("/", a.createBookmark)
			r.Get("/", a.listBookmarks)
			r.Post("/bulk", a.bulk)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getBookmark)
				r.Patch("/", a.updateBookmark)
				r.Delete("/", a.deleteBookmark)
				r.Post("/visit", a.recordVisit)
				r.Post("/archive", a.toggleArchive)
				r.Get("/references", a.references)
				r.Post("/summary", a.summary)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", a.listTags)
			r.Get("/search", a.searchTags)
			r.Get("/suggest", a.suggestTags)
			r.Post("/recount", a.recountTags)
			r.Get("/{name}/content", a.contentByTag)
		})

		r.Route("/folders", func(r chi.Router) {
			r.Post("/", a.createFolder)
			r.Get("/", a.listFolders)
			r.Delete("/{id}", a.deleteFolder)
		})

		r.Route("/satellites", func(r chi.Router) {
			r.Post("/", a.createSatellite)
			r.Get("/", a.listSatellites)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getSatellite)
				r.Put("/status", a.updateSatelliteStatus)
				r.Get("/resources", a.satelliteResources)
				r.Put("/resources/{bookmarkID}", a.attachResource)
				r.Delete("/resources/{bookmarkID}", a.detachResource)
			})
		})

		r.Route("/planner", func(r chi.Router) {
			r.Post("/", a.createPlannerEntry)
			r.Get("/", a.listPlannerEntries)
			r.Post("/{id}/transition", a.transitionPlannerEntry)
		})
	})

	return r
}

// New builds the HTTP server for cfg.
func New(cfg config.ServerConfig, svc *pkm.Service, logger pkm.Logger) *Server {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	s := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(svc, logger, cfg.RequestTimeout.Duration),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return &Server{http: s, logger: logger}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
