package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// Validator checks a full set of stored overrides before one is persisted.
type Validator func(overrides map[string]string) error

// SettingsHandler handles HTTP requests for setting overrides. Changes are
// persisted and take effect on the next start.
type SettingsHandler struct {
	store    *store.Store
	validate Validator
	log      zerolog.Logger
}

// NewSettingsHandler creates a handler. validate may be nil.
func NewSettingsHandler(s *store.Store, validate Validator, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:    s,
		validate: validate,
		log:      log.With().Str("component", "settings").Logger(),
	}
}

// ServeHTTP routes /api/settings and /api/settings/{key}.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/settings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	key := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, key)
	case http.MethodPut:
		h.put(w, r, key)
	case http.MethodDelete:
		h.delete(w, r, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type putSettingRequest struct {
	Value *string `json:"value"`
}

type settingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listSettingsResponse struct {
	Settings []settingResponse `json:"settings"`
	Keys     []string          `json:"keys"`
}

func toSettingResponse(s *store.Setting) settingResponse {
	return settingResponse{Key: s.Key, Value: s.Value, UpdatedAt: s.UpdatedAt}
}

// list handles GET /api/settings: stored overrides plus every known key.
func (h *SettingsHandler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}

	response := listSettingsResponse{
		Settings: make([]settingResponse, 0, len(settings)),
		Keys:     config.Keys(),
	}
	for _, s := range settings {
		response.Settings = append(response.Settings, toSettingResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/settings/{key}.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	setting, err := h.store.Settings().Get(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get setting")
		return
	}

	writeJSON(w, http.StatusOK, toSettingResponse(setting))
}

// put handles PUT /api/settings/{key}. The key must be known and the
// resulting configuration must validate.
func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request, key string) {
	key, ok := config.Canonical(key)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown setting")
		return
	}

	var req putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	if h.validate != nil {
		overrides, err := h.store.Settings().Map()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		overrides[key] = *req.Value
		if err := h.validate(overrides); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	setting, err := h.store.Settings().Set(key, *req.Value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save setting")
		return
	}

	h.log.Info().Str("key", key).Str("value", setting.Value).Msg("setting saved")
	writeJSON(w, http.StatusOK, toSettingResponse(setting))
}

// delete handles DELETE /api/settings/{key}, restoring the configured value.
func (h *SettingsHandler) delete(w http.ResponseWriter, r *http.Request, key string) {
	if err := h.store.Settings().Delete(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}

	h.log.Info().Str("key", key).Msg("setting removed")
	w.WriteHeader(http.StatusNoContent)
}
