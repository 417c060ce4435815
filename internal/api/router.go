// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/josuejero/ReelSwipe/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	access        *middleware.AccessLogger
}

// NewRouter creates a Router. access may be nil to disable access logging.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, access *middleware.AccessLogger) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		access:        access,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if router.access != nil {
		r.Use(router.access.Handler)
	}
	r.Use(middleware.PrometheusMetrics)
	r.Use(Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ========================
	// Public API
	// ========================
	r.Route("/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.Get("/deck", router.handler.Deck)
		r.Post("/events/swipe", router.handler.Swipe)
		r.Get("/profile", router.handler.Profile)

		// ========================
		// Admin
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RequireAdmin)

			r.Get("/metrics", router.handler.Metrics)
			r.Get("/admin/model", router.handler.GetModel)
			r.Post("/admin/model", router.handler.SetModel)
		})
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, msgNotFound)
}
