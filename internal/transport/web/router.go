// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the identity endpoints onto a chi router.
//
// Authentication endpoints are public; the user directory requires a live
// session.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.handleLogin)
			r.Post("/logout", h.handleLogout)
			r.Post("/register", h.handleRegister)
			r.Post("/recover", h.handleRecover)
			r.Post("/reset", h.handleReset)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.requireSession)
			r.Get("/", h.handleListAccounts)
			r.Patch("/{accountID}", h.handleUpdateProfile)
		})
	})

	return r
}
