package http

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

type listRequest struct {
	Operation string `json:"operation"`
	Numbers   []any  `json:"numbers"`
}

// handleListCalculate returns the bare operation result.
func (h *handler) handleListCalculate(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Numbers) == 0 {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: no numbers provided", domain.ErrInvalidInput))
		return
	}
	result := h.ports.Evaluator.Evaluate(r.Context(), req.Operation, domain.Data{"numbers": req.Numbers})
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleSampleData(w http.ResponseWriter, _ *http.Request) {
	samples := map[string][]float64{}
	if h.ports.Samples != nil {
		samples = h.ports.Samples()
	}
	writeJSON(w, http.StatusOK, samples)
}
