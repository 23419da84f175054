package api

import (
	"net/http"
)

type assistantMessage struct {
	Message string `json:"message"`
}

func (h *Handler) assistantPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"prompts": h.deps.Assistant.Prompts()})
}

func (h *Handler) assistantMessage(w http.ResponseWriter, r *http.Request) {
	var req assistantMessage
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.deps.Assistant.Reply(r.Context(), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
