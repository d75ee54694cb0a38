package http

import (
	"net/http"
	"time"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// handleConvert takes {value, from_unit, to_unit} at the top level, or
// wrapped as {operation: "convert", data: {...}}.
func (h *handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(w, r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	op, data := "convert", domain.Data(body)
	if _, wrapped := body["data"]; wrapped {
		var err error
		if op, data, err = operationRequest(body); err != nil {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	logger.Info("conversion request from %s", r.RemoteAddr)
	result := h.ports.Evaluator.Evaluate(r.Context(), op, data)
	writeJSON(w, http.StatusOK, h.directReply(body, result))
}

type unitsReply struct {
	Agent          string              `json:"agent"`
	AvailableUnits map[string][]string `json:"available_units"`
	Timestamp      time.Time           `json:"timestamp"`
}

func (h *handler) handleUnits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, unitsReply{
		Agent:          h.cfg.Identity.AgentID,
		AvailableUnits: h.ports.Units.AvailableUnits(),
		Timestamp:      h.now(),
	})
}
