package server

import (
	"net/http"

	"github.com/voyagen/xtreamgate/internal/models"
)

// --- channel mapping handlers ---

func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.engine.ListMappings(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappings)
}

func (s *Server) handleCreateMapping(w http.ResponseWriter, r *http.Request) {
	m := models.NewChannelMapping(r.PathValue("id"), "")
	if err := decodeJSON(w, r, &m); err != nil {
		s.fail(w, r, err)
		return
	}
	m.AccountID = r.PathValue("id")
	if err := s.check(&m); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.CreateMapping(r.Context(), m.AccountID, &m); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleDeleteAccountMappings(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.DeleteAccountMappings(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	m, err := s.engine.GetMapping(r.Context(), r.PathValue("mappingId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleUpdateMapping decodes the body over the stored mapping, so omitted
// fields keep their current values.
func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	existing, err := s.engine.GetMapping(r.Context(), r.PathValue("mappingId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m := existing.Clone()
	if err := decodeJSON(w, r, &m); err != nil {
		s.fail(w, r, err)
		return
	}
	// Owner and stream id fall back to the stored mapping.
	if err := s.check(&m, "AccountID", "OriginalStreamID"); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.UpdateMapping(r.Context(), r.PathValue("mappingId"), &m); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteMapping(r.Context(), r.PathValue("mappingId")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeNoContent(w)
}
