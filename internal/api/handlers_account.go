package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Belphemur/MovieMatch/internal/models"
	"github.com/Belphemur/MovieMatch/internal/services"
	"github.com/Belphemur/MovieMatch/internal/validation"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type likesRequest struct {
	LikedIDs []models.Identifier `json:"liked_ids" validate:"dive,gt=0"`
}

type likesResponse struct {
	LikedIDs               []models.Identifier `json:"liked_ids"`
	RecommendationsEnabled bool                `json:"recommendations_enabled"`
}

type addWatchlistRequest struct {
	ID         models.Identifier `json:"id" validate:"gt=0"`
	Kind       models.MediaKind  `json:"kind"`
	Title      string            `json:"title"`
	PosterPath string            `json:"poster_path"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var form services.RegistrationForm
	if err := decodeBody(w, r, &form); err != nil {
		writeError(w, r, err)
		return
	}

	s := sessionFrom(r)
	result, err := h.deps.Accounts.Register(r.Context(), s.writer, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.save()
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s := sessionFrom(r)
	result, err := h.deps.Accounts.Login(r.Context(), s.writer, s.sess.Snapshot(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.save()
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	h.deps.Accounts.Logout(s.writer)
	s.save()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) usernameAvailability(w http.ResponseWriter, r *http.Request) {
	status := h.deps.Accounts.CheckUsername(r.Context(), chi.URLParam(r, "username"))
	writeJSON(w, http.StatusOK, map[string]models.Availability{"status": status})
}

func (h *Handler) updateLikes(w http.ResponseWriter, r *http.Request) {
	var req likesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	s := sessionFrom(r)
	liked := models.NewLikedSet(req.LikedIDs...)
	h.deps.Accounts.UpdateLikes(s.writer, liked)
	s.save()

	writeJSON(w, http.StatusOK, likesResponse{
		LikedIDs:               liked.IDs(),
		RecommendationsEnabled: liked.MeetsMinimum(h.deps.MinLiked),
	})
}

func (h *Handler) watchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Accounts.Watchlist(r.Context(), sessionFrom(r).sess.Snapshot())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) addToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req addWatchlistRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	media := models.MediaSummary{ID: req.ID, Kind: req.Kind, Title: req.Title, PosterPath: req.PosterPath}
	outcome, err := h.deps.Accounts.AddToWatchlist(r.Context(), sessionFrom(r).sess.Snapshot(), media)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if outcome == models.AddOutcomeAdded {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]models.AddOutcome{"outcome": outcome})
}
