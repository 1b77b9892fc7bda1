package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/domain"
)

// APIHandler serves the REST endpoints for quizzes and settings.
type APIHandler struct {
	quizzes  *app.QuizService
	settings *app.SettingsService
	log      *zap.Logger
}

func NewAPIHandler(quizzes *app.QuizService, settings *app.SettingsService, log *zap.Logger) *APIHandler {
	return &APIHandler{quizzes: quizzes, settings: settings, log: log.Named("APIHandler")}
}

type putSettingRequest struct {
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

func (h *APIHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	names, err := h.quizzes.QuizNames(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"quizzes": names})
}

func (h *APIHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *APIHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.settings.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (h *APIHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	var req putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	setting, err := h.settings.Upsert(r.Context(), chi.URLParam(r, "key"), req.Value, req.Description)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (h *APIHandler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSettingNotFound), errors.Is(err, domain.ErrQuizNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidSetting):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
