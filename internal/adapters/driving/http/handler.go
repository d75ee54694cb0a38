package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// maxRequestBytes caps request bodies.
const maxRequestBytes = 1 << 20

type handler struct {
	kind  domain.AgentKind
	cfg   Config
	ports *Ports
	now   func() time.Time
}

// NewHandler builds the router of the service whose domain core is
// ports.Evaluator.
func NewHandler(cfg Config, ports *Ports) (http.Handler, error) {
	if ports == nil {
		return nil, ErrMissingEvaluator
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	kind := ports.Evaluator.Kind()
	if cfg.Identity.AgentID != "" && cfg.Identity.AgentID != kind.AgentID() {
		return nil, fmt.Errorf("%w: %s vs %s", ErrKindMismatch, cfg.Identity.AgentID, kind.AgentID())
	}
	if cfg.Identity.AgentID == "" {
		cfg.Identity.AgentID = kind.AgentID()
	}

	h := &handler{kind: kind, cfg: cfg, ports: ports, now: time.Now}
	return h.routes(), nil
}

func (h *handler) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.cfg.Identity.AgentID))
	r.Use(middleware.Recoverer)
	if h.cfg.RateLimit > 0 {
		r.Use(rateLimit(h, h.cfg.RateLimit, h.cfg.RateBurst))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusNotFound, "no route for "+r.URL.Path, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path, "")
	})

	r.Get("/health", h.handleHealth)
	r.Get("/network-info", h.handleNetworkInfo)
	r.Post("/message", h.handleMessage)

	switch h.kind {
	case domain.AgentCalculator:
		r.Post("/calculate", h.handleDirect)
		r.Post("/route", h.handleRoute)
		r.Route("/config", func(cr chi.Router) {
			cr.Get("/agents", h.handleGetAgents)
			cr.Put("/agents", h.handlePutAgents)
			cr.Post("/test", h.handleTestAgents)
		})
	case domain.AgentUnitConverter:
		r.Post("/convert", h.handleConvert)
		r.Get("/units", h.handleUnits)
	case domain.AgentStatistics:
		r.Post("/stats", h.handleDirect)
		r.Route("/api", func(ar chi.Router) {
			ar.Post("/calculate", h.handleListCalculate)
			ar.Get("/sample-data", h.handleSampleData)
		})
	}

	return WithCORS(r)
}

// errorReply is the body of every 4xx/5xx reply the handler itself produces.
type errorReply struct {
	Agent     string    `json:"agent"`
	Error     string    `json:"error"`
	ErrorCode string    `json:"error_code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// writeJSON encodes v before the status line goes out, so a value that
// cannot be encoded turns into a 500 with a JSON error body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("encode response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorReply{
			Error:     fmt.Sprintf("response could not be encoded: %v", err),
			Timestamp: time.Now().UTC(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Warn("write response: %v", err)
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeMessage(w, status, err.Error(), domain.ErrorCode(err))
}

func (h *handler) writeMessage(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorReply{
		Agent:     h.cfg.Identity.AgentID,
		Error:     msg,
		ErrorCode: code,
		Timestamp: h.now(),
	})
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// operationRequest splits an {operation, data} body.
func operationRequest(body map[string]any) (string, domain.Data, error) {
	op, ok := body["operation"].(string)
	if !ok || op == "" {
		return "", nil, fmt.Errorf("%w: operation is required", domain.ErrInvalidInput)
	}
	switch data := body["data"].(type) {
	case nil:
		return op, domain.Data{}, nil
	case map[string]any:
		return op, domain.Data(data), nil
	default:
		return "", nil, fmt.Errorf("%w: data must be an object", domain.ErrInvalidInput)
	}
}

func (h *handler) directReply(request any, result domain.OperationResult) domain.DirectReply {
	return domain.DirectReply{
		Agent:     h.cfg.Identity.AgentID,
		Identity:  h.cfg.Identity.String(),
		ServerIP:  h.cfg.Identity.Host,
		Request:   request,
		Response:  result,
		Timestamp: h.now(),
	}
}

// otherAgents returns the peer URLs of every agent but this one.
func (h *handler) otherAgents() map[string]string {
	urls := h.ports.Peers.Snapshot()
	out := make(map[string]string, 2)
	for _, kind := range domain.AllAgentKinds() {
		if kind != h.kind {
			out[kind.SettingsKey()] = urls.URLFor(kind)
		}
	}
	return out
}

type healthReply struct {
	Status          string            `json:"status"`
	Agent           string            `json:"agent"`
	Identity        string            `json:"identity"`
	IP              string            `json:"ip"`
	Port            int               `json:"port"`
	Timestamp       time.Time         `json:"timestamp"`
	ConnectedAgents map[string]string `json:"connected_agents"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthReply{
		Status:          "online",
		Agent:           h.cfg.Identity.AgentID,
		Identity:        h.cfg.Identity.String(),
		IP:              h.cfg.Identity.Host,
		Port:            h.cfg.Identity.Port,
		Timestamp:       h.now(),
		ConnectedAgents: h.otherAgents(),
	})
}

type networkInfo struct {
	MyIP                 string            `json:"my_ip"`
	MyPort               int               `json:"my_port"`
	MyURL                string            `json:"my_url"`
	OtherAgents          map[string]string `json:"other_agents"`
	EnvironmentVariables map[string]string `json:"environment_variables"`
}

func (h *handler) handleNetworkInfo(w http.ResponseWriter, _ *http.Request) {
	env := make(map[string]string, 9)
	for _, kind := range domain.AllAgentKinds() {
		for _, suffix := range []string{"_HOST", "_PORT", "_URL"} {
			name := kind.EnvPrefix() + suffix
			if v, ok := h.cfg.lookupEnv(name); ok {
				env[name] = v
			} else {
				env[name] = "Not set"
			}
		}
	}
	writeJSON(w, http.StatusOK, networkInfo{
		MyIP:                 h.cfg.Identity.Host,
		MyPort:               h.cfg.Identity.Port,
		MyURL:                h.cfg.Identity.URL(),
		OtherAgents:          h.otherAgents(),
		EnvironmentVariables: env,
	})
}

func (h *handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err))
		return
	}
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: malformed envelope: %v", domain.ErrInvalidInput, err))
		return
	}
	if h.kind == domain.AgentUnitConverter {
		var raw struct {
			Message map[string]any `json:"message"`
		}
		_ = json.Unmarshal(body, &raw)
		liftConversionFields(&env.Message, raw.Message)
	}

	logger.Info("message from %s (%s): %s", env.Sender, r.RemoteAddr, env.Message.Operation)

	resp, err := h.ports.Chain.Handle(r.Context(), env)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case domain.IsDownstream(err):
		writeJSON(w, http.StatusBadGateway, resp)
	default:
		writeJSON(w, http.StatusBadRequest, resp)
	}
}

// liftConversionFields lets the unit converter's /message take a conversion
// written directly in the message, as in {"message": {"value": 1,
// "from_unit": "meter", "to_unit": "feet"}}. A missing operation means convert.
func liftConversionFields(msg *domain.Message, raw map[string]any) {
	if msg.Operation == "" {
		msg.Operation = "convert"
	}
	if msg.Operation != "convert" {
		return
	}
	if msg.Data == nil {
		msg.Data = domain.Data{}
	}
	for k, v := range raw {
		if k == "operation" || k == "data" || msg.Data.Has(k) {
			continue
		}
		msg.Data[k] = v
	}
}

// handleDirect serves /calculate and /stats: {operation, data} in, DirectReply out.
func (h *handler) handleDirect(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(w, r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	op, data, err := operationRequest(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	logger.Info("%s request from %s: %s", r.URL.Path, r.RemoteAddr, op)
	result := h.ports.Evaluator.Evaluate(r.Context(), op, data)
	writeJSON(w, http.StatusOK, h.directReply(body, result))
}
