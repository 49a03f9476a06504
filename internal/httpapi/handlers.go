// v0
// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

type handler struct {
	provider Provider
	health   *Health
	log      *slog.Logger
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) healthHandler(w http.ResponseWriter, _ *http.Request) {
	if h.health != nil && !h.health.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listPlants(w http.ResponseWriter, _ *http.Request) {
	plants := h.provider.Plants()
	if plants == nil {
		plants = []PlantStatus{}
	}
	writeJSON(w, http.StatusOK, plants)
}

func slotParam(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["slot"])
}

func (h *handler) getPlant(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid slot"})
		return
	}
	st, ok := h.provider.Plant(slot)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no plant in slot " + strconv.Itoa(slot)})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// putProfile replaces a plant's tolerance profile; progression is kept.
func (h *handler) putProfile(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid slot"})
		return
	}
	var p plant.Profile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid profile: " + err.Error()})
		return
	}
	if err := h.provider.Reconfigure(slot, p); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, plant.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, plant.ErrInvalidArgument), errors.Is(err, plant.ErrArithmeticGuard):
			status = http.StatusBadRequest
		}
		h.log.Warn("profile_update_rejected", slog.Int("slot", slot), slog.Any("err", err))
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}
	h.log.Info("profile_updated", slog.Int("slot", slot), slog.String("name", p.Name))
	st, _ := h.provider.Plant(slot)
	writeJSON(w, http.StatusOK, st)
}
