// 文件路径: internal/api/handler/profile.go
// 模块说明: 这是 internal 模块里的 profile 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/creamcroissant/boxbuild/internal/service"
)

// ProfileHandler serves the profile listing and compiled configurations.
type ProfileHandler struct {
	builds service.ConfigBuildService
}

func NewProfileHandler(builds service.ConfigBuildService) *ProfileHandler {
	return &ProfileHandler{builds: builds}
}

type profileSummary struct {
	ID      int64  `json:"id"`
	GroupID int64  `json:"group_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
}

// List handles GET /api/v1/profiles.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.builds.ListProfiles(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "profile.list", err)
		return
	}
	out := make([]profileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileSummary{
			ID:      p.ID,
			GroupID: p.GroupID,
			Name:    p.DisplayName(),
			Type:    string(p.Kind()),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": out})
}

// Config handles GET /api/v1/profiles/{id}/config?mode=. The body is the
// engine document itself; build metadata travels in headers.
func (h *ProfileHandler) Config(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "profile.config", fmt.Errorf("invalid profile id / 配置 ID 无效"))
		return
	}

	result, err := h.builds.Build(r.Context(), id, r.URL.Query().Get("mode"))
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "profile.config", err)
		return
	case errors.Is(err, service.ErrInvalidMode):
		respondError(w, http.StatusBadRequest, "profile.config", err)
		return
	case err != nil:
		respondError(w, http.StatusUnprocessableEntity, "profile.config", err)
		return
	}

	etag := contentETag(result.Config)
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Build-Alerts", strconv.Itoa(len(result.Alerts)))
	w.Header().Set("X-Selector-Group", strconv.FormatInt(result.SelectorGroupID, 10))
	if notModified(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Config))
}

// Build handles GET /api/v1/profiles/{id}/build?mode=: the full build result
// including the helper index, tag map and alerts.
func (h *ProfileHandler) Build(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "profile.build", fmt.Errorf("invalid profile id / 配置 ID 无效"))
		return
	}
	result, err := h.builds.Build(r.Context(), id, r.URL.Query().Get("mode"))
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "profile.build", err)
	case errors.Is(err, service.ErrInvalidMode):
		respondError(w, http.StatusBadRequest, "profile.build", err)
	case err != nil:
		respondError(w, http.StatusUnprocessableEntity, "profile.build", err)
	default:
		respondJSON(w, http.StatusOK, map[string]any{
			"data":    result,
			"traffic": result.TrafficTags(),
		})
	}
}
