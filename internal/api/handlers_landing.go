package api

import (
	"net/http"

	"github.com/robert-malhotra/go-stac-api/pkg/render"
)

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, render.Landing(s.catalog, s.linker(r)))
}

func (s *Server) handleConformance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, render.Conformance(s.catalog.ConformsTo))
}

type checkerBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleChecker reports whether the service and its store are available.
func (s *Server) handleChecker(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, checkerBody{Success: true, Message: "OK"})
}
