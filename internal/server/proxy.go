package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/voyagen/xtreamgate/internal/service"
)

func credentialsFrom(q url.Values) service.Credentials {
	return service.Credentials{Username: q.Get("username"), Password: q.Get("password")}
}

// optionalInt parses an optional non-negative integer query parameter.
func optionalInt(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s: %s", service.ErrValidation, name, v)
	}
	return n, nil
}

func queryBool(q url.Values, name string) bool {
	b, _ := strconv.ParseBool(q.Get(name))
	return b
}

func (s *Server) handlePlayerAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action, err := service.ParseAction(q.Get("action"))
	if err != nil {
		s.failProxy(w, r, err)
		return
	}
	page, err := optionalInt(q, "page")
	if err != nil {
		s.failProxy(w, r, err)
		return
	}
	pageSize, err := optionalInt(q, "page_size")
	if err != nil {
		s.failProxy(w, r, err)
		return
	}

	v, err := s.engine.PlayerAPI(r.Context(), service.PlayerRequest{
		AccountID:     r.PathValue("id"),
		Action:        action,
		Credentials:   credentialsFrom(q),
		CategoryID:    q.Get("category_id"),
		StreamID:      q.Get("stream_id"),
		VodID:         q.Get("vod_id"),
		SeriesID:      q.Get("series_id"),
		BypassFilters: queryBool(q, "bypass_filters"),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		s.failProxy(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	data, err := s.engine.Guide(r.Context(), r.PathValue("id"), credentialsFrom(r.URL.Query()))
	if err != nil {
		s.failProxy(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := r.PathValue("id")
	data, err := s.engine.Playlist(r.Context(), id, credentialsFrom(q), q.Get("output"), q.Get("type"))
	if err != nil {
		s.failProxy(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".m3u"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleStreamRedirect sends the player to the upstream media URL. Stream
// bytes never pass through the gateway.
func (s *Server) handleStreamRedirect(w http.ResponseWriter, r *http.Request) {
	target, err := s.engine.StreamURL(r.Context(), r.PathValue("id"), r.PathValue("type"), r.PathValue("stream"),
		service.Credentials{Username: r.PathValue("username"), Password: r.PathValue("password")})
	if err != nil {
		s.failProxy(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
