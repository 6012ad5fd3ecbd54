package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/logging"
	"github.com/voyagen/xtreamgate/internal/models"
	"github.com/voyagen/xtreamgate/internal/service"
)

func contentType(r *http.Request) (models.ContentType, error) {
	ct, err := models.ParseContentType(r.PathValue("type"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return ct, nil
}

func (s *Server) handleInitializeCategories(w http.ResponseWriter, r *http.Request) {
	fs, err := s.engine.InitializeCategories(r.Context(), r.PathValue("id"), credentialsFrom(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) handleRefreshCategories(w http.ResponseWriter, r *http.Request) {
	ct, err := contentType(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.RefreshCategories(r.Context(), r.PathValue("id"), ct, credentialsFrom(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleEnqueueRefresh queues one background reconciliation per content type.
func (s *Server) handleEnqueueRefresh(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		writeErr(w, http.StatusServiceUnavailable, errors.New("background refresh is not configured (REDIS_URL not set)"))
		return
	}
	acc, err := s.engine.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, ct := range models.ContentTypes {
		job := cache.RefreshJob{AccountID: acc.ID, ContentType: ct.String()}
		if err := cache.Enqueue(r.Context(), s.redis, cache.DefaultQueue, job); err != nil {
			s.fail(w, r, fmt.Errorf("enqueue refresh: %w", err))
			return
		}
	}
	logging.Ctx(r.Context()).Info().Str("account", acc.ID).Msg("category refresh queued")
	writeJSON(w, http.StatusAccepted, map[string]any{
		"account_id": acc.ID,
		"queued":     len(models.ContentTypes),
	})
}

func (s *Server) handleUpstreamCategories(w http.ResponseWriter, r *http.Request) {
	ct, err := contentType(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cats, err := s.engine.UpstreamCategories(r.Context(), r.PathValue("id"), ct, credentialsFrom(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type updateCategoriesRequest struct {
	Allowed    []string `json:"allowedCategoryIds" validate:"dive,required"`
	NotAllowed []string `json:"notAllowedCategoryIds" validate:"dive,required"`
}

func (s *Server) handleUpdateCategories(w http.ResponseWriter, r *http.Request) {
	ct, err := contentType(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateCategoriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.check(&req); err != nil {
		s.fail(w, r, err)
		return
	}
	fs, err := s.engine.UpdateCategories(r.Context(), r.PathValue("id"), ct, req.Allowed, req.NotAllowed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}
