package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Belphemur/MovieMatch/internal/apperrors"
	"github.com/Belphemur/MovieMatch/internal/metadata"
	"github.com/Belphemur/MovieMatch/internal/models"
	"github.com/Belphemur/MovieMatch/internal/recommend"
)

type recommendationsResponse struct {
	IDs    []models.Identifier            `json:"ids"`
	Groups map[string][]models.Identifier `json:"groups"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Dashboard.Load(r.Context(), sessionFrom(r).sess.Snapshot())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	liked := sessionFrom(r).sess.Snapshot().Liked
	if err := recommend.CheckPrecondition(liked, h.deps.MinLiked); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.deps.Recommender.Recommend(r.Context(), liked)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ids := result.Unique()
	if ids == nil {
		ids = []models.Identifier{}
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{IDs: ids, Groups: result.Groups})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	results, err := h.deps.Metadata.SearchMulti(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.deps.Metadata.ListGenres(r.Context(), models.ParseMediaKind(chi.URLParam(r, "kind")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) discover(w http.ResponseWriter, r *http.Request) {
	genreID, err := strconv.Atoi(r.URL.Query().Get("genre"))
	if err != nil || genreID <= 0 {
		writeError(w, r, apperrors.NewValidationError("genre", "must be a positive genre id"))
		return
	}

	results, err := h.deps.Metadata.DiscoverByGenre(r.Context(), genreID, models.ParseMediaKind(chi.URLParam(r, "kind")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) title(w http.ResponseWriter, r *http.Request) {
	id, kind, err := titleParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.deps.Metadata.GetDetail(r.Context(), id, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) providers(w http.ResponseWriter, r *http.Request) {
	id, kind, err := titleParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	region := r.URL.Query().Get("region")
	if region == "" {
		region = metadata.DefaultRegion
	}
	providers, err := h.deps.Metadata.GetWatchProviders(r.Context(), id, kind, region)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func titleParams(r *http.Request) (models.Identifier, models.MediaKind, error) {
	id, err := models.ParseIdentifier(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, models.MediaKindUnknown, apperrors.NewValidationError("id", "must be a positive identifier")
	}
	return id, models.ParseMediaKind(chi.URLParam(r, "kind")), nil
}
