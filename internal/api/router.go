package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the routed HTTP handler of the API.
//
//	/checker                      health check, never cached
//	/metrics                      Prometheus exposition
//	/{api_base}                   landing page
//	/{api_base}conformance
//	/{api_base}search             GET and POST
//	/{api_base}collections[/{collection}[/items[/{item}[/assets[/{asset}]]]]]
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logRequests)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "If-Match", "If-None-Match", "X-Request-ID"},
		ExposedHeaders: []string{"ETag", "Location", "X-Request-ID"},
		MaxAge:         300,
	}))
	if n := s.cfg.RateLimit.RequestsPerMinute; n > 0 {
		r.Use(httprate.Limit(n, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByRealIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				s.respondError(w, r, errTooManyRequests)
			}),
		))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errMethodNotAllowed)
	})

	r.With(noCache).Get("/checker", s.handleChecker)
	r.Handle("/metrics", promhttp.Handler())

	routes := func(r chi.Router) {
		r.Use(chimiddleware.GetHead)
		r.Use(recordMetrics)
		r.Use(s.cacheHeaders)

		r.Get("/", s.handleLanding)
		r.Get("/conformance", s.handleConformance)
		r.Get("/search", s.handleSearch)
		r.Post("/search", s.handleSearch)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", s.handleListCollections)
			r.With(s.requireToken).Post("/", s.handleCreateCollection)

			r.Route("/{collection}", func(r chi.Router) {
				r.Get("/", s.handleGetCollection)
				r.With(s.requireToken).Put("/", s.handleUpdateCollection)
				r.With(s.requireToken).Patch("/", s.handleUpdateCollection)
				r.With(s.requireToken).Delete("/", s.handleDeleteCollection)

				r.Route("/items", func(r chi.Router) {
					r.Get("/", s.handleListItems)
					r.With(s.requireToken).Post("/", s.handleCreateItem)

					r.Route("/{item}", func(r chi.Router) {
						r.Get("/", s.handleGetItem)
						r.With(s.requireToken).Put("/", s.handleUpdateItem)
						r.With(s.requireToken).Patch("/", s.handleUpdateItem)
						r.With(s.requireToken).Delete("/", s.handleDeleteItem)

						r.Route("/assets", func(r chi.Router) {
							r.Get("/", s.handleListAssets)
							r.With(s.requireToken).Post("/", s.handleCreateAsset)

							r.Route("/{asset}", func(r chi.Router) {
								r.Get("/", s.handleGetAsset)
								r.With(s.requireToken).Put("/", s.handleUpdateAsset)
								r.With(s.requireToken).Patch("/", s.handleUpdateAsset)
								r.With(s.requireToken).Delete("/", s.handleDeleteAsset)
							})
						})
					})
				})
			})
		})
	}

	if base := strings.Trim(s.apiBase(), "/"); base != "" {
		r.Route("/"+base, routes)
	} else {
		r.Group(routes)
	}
	return r
}
