package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

type routeRequest struct {
	Target   string          `json:"target"`
	Endpoint string          `json:"endpoint"`
	Payload  json.RawMessage `json:"payload"`
}

func (h *handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := h.ports.Router.Route(r.Context(), req.Target, req.Endpoint, req.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTarget) {
			h.writeMessage(w, http.StatusBadRequest, "invalid target", domain.CodeInvalidTarget)
			return
		}
		logger.Warn("route %s failed: %v", req.Target, err)
		h.writeMessage(w, http.StatusBadGateway, "proxy failed: "+err.Error(), domain.ErrorCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (h *handler) handleGetAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ports.Peers.Snapshot())
}

type agentsUpdate struct {
	OK     bool             `json:"ok"`
	Config *domain.PeerURLs `json:"config,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func (h *handler) handlePutAgents(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, agentsUpdate{Error: err.Error()})
		return
	}
	// Non-string values are ignored like missing ones.
	str := func(key string) string {
		s, _ := body[key].(string)
		return s
	}
	partial := domain.PeerURLs{
		CalculatorURL: str(domain.AgentCalculator.ConfigKey()),
		UnitURL:       str(domain.AgentUnitConverter.ConfigKey()),
		StatisticsURL: str(domain.AgentStatistics.ConfigKey()),
	}

	urls, err := h.ports.Peers.Update(partial)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, agentsUpdate{Error: err.Error()})
		return
	}
	logger.Info("peers updated over HTTP: calculator=%s unit=%s statistics=%s",
		urls.CalculatorURL, urls.UnitURL, urls.StatisticsURL)
	writeJSON(w, http.StatusOK, agentsUpdate{OK: true, Config: &urls})
}

func (h *handler) handleTestAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ports.Health.Check(r.Context(), h.ports.Peers.Snapshot()))
}
