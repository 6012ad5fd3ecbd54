package server

import (
	"net/http"

	"github.com/voyagen/xtreamgate/internal/logging"
	"github.com/voyagen/xtreamgate/internal/models"
)

// --- account handlers ---

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.engine.ListAccounts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.engine.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var acc models.Account
	if err := decodeJSON(w, r, &acc); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.check(&acc); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.CreateAccount(r.Context(), &acc); err != nil {
		s.fail(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("account", acc.ID).Str("host", acc.Host).Msg("account created")
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var acc models.Account
	if err := decodeJSON(w, r, &acc); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.check(&acc); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.UpdateAccount(r.Context(), r.PathValue("id"), &acc); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.engine.DeleteAccount(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("account", id).Msg("account deleted")
	writeNoContent(w)
}

// --- legacy filter settings ---

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	fs, err := s.engine.FilterSettings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) handleSaveFilters(w http.ResponseWriter, r *http.Request) {
	var fs models.FilterSettings
	if err := decodeJSON(w, r, &fs); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.SaveFilterSettings(r.Context(), &fs); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearCache(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Msg("response cache cleared")
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}
