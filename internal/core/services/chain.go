package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// Ensure ChainService implements the interface.
var _ driving.ChainOrchestrator = (*ChainService)(nil)

// ChainConfig configures a ChainService.
type ChainConfig struct {
	// Identity is this service's hop identity.
	Identity domain.Identity

	// Timeout bounds each downstream call.
	Timeout time.Duration

	// MaxHops bounds the number of forwarded hops.
	MaxHops int

	// LegacyUnitAliases accepts from/to and fromUnit/toUnit in handoffs.
	LegacyUnitAliases bool
}

// ChainService runs a local operation and forwards its result along the
// next-hop chain, one hop at a time.
type ChainService struct {
	evaluator driving.Evaluator
	client    driven.PeerClient
	peers     driving.PeerRegistry
	cfg       ChainConfig
	now       func() time.Time
}

// NewChainService creates a chain orchestrator for one service.
func NewChainService(
	evaluator driving.Evaluator,
	client driven.PeerClient,
	peers driving.PeerRegistry,
	cfg ChainConfig,
) *ChainService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultChainTimeout
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = domain.DefaultMaxHops
	}
	return &ChainService{
		evaluator: evaluator,
		client:    client,
		peers:     peers,
		cfg:       cfg,
		now:       time.Now,
	}
}

type chainState int

const (
	stateComputing chainState = iota
	stateForwarding
	stateDone
	stateFailed
)

// chainRun is the accumulator of one Handle call.
type chainRun struct {
	env     domain.Envelope
	trace   []string
	steps   []domain.StepRecord
	last    domain.OperationResult
	current any
	hop     *domain.NextHop
	index   int
	err     error
}

// Handle computes locally and walks the next-hop chain.
func (s *ChainService) Handle(ctx context.Context, env domain.Envelope) (domain.ChainResponse, error) {
	// A disconnecting caller does not abort an in-flight chain.
	ctx = context.WithoutCancel(ctx)

	run := &chainRun{
		env:   env,
		trace: append(slices.Clone(env.Trace), s.cfg.Identity.String()),
		steps: []domain.StepRecord{},
		hop:   env.Next,
	}

	if err := env.Validate(); err != nil {
		run.last = domain.Failed("", err)
		return s.respond(run, nil), nil
	}
	if depth := env.Next.Depth(); depth > s.cfg.MaxHops {
		err := fmt.Errorf("%w: chain has %d hops, limit is %d", domain.ErrInvalidInput, depth, s.cfg.MaxHops)
		run.last = domain.Failed("", err)
		return s.respond(run, nil), err
	}

	state := stateComputing
	for {
		switch state {
		case stateComputing:
			state = s.compute(ctx, run)
		case stateForwarding:
			state = s.forward(ctx, run)
		case stateDone:
			return s.respond(run, run.current), nil
		case stateFailed:
			var hopErr *domain.HopError
			if !errors.As(run.err, &hopErr) {
				return s.respond(run, nil), run.err
			}
			resp := s.respond(run, nil)
			resp.FailedHop = &domain.FailedHop{Index: hopErr.Index, URL: hopErr.URL, Agent: hopErr.Agent}
			return resp, run.err
		}
	}
}

func (s *ChainService) compute(ctx context.Context, run *chainRun) chainState {
	op := run.env.Message.Operation
	local := s.evaluator.Evaluate(ctx, op, run.env.Message.Data)
	run.last = local
	if !local.Success {
		// Local failures are reported as results and never forwarded.
		logger.Debug("local %s failed: %s", op, local.Error)
		return stateDone
	}
	run.steps = append(run.steps, domain.StepRecord{
		Agent:     s.cfg.Identity.AgentID,
		Operation: op,
		Result:    local.Result,
	})
	run.current = local.Result
	if run.hop == nil {
		return stateDone
	}
	return stateForwarding
}

func (s *ChainService) forward(ctx context.Context, run *chainRun) chainState {
	hop := run.hop
	run.index++

	url, err := s.destination(hop)
	if err != nil {
		return s.fail(run, hop, url, "", err)
	}
	value, ok := domain.AsNumber(run.current)
	if !ok {
		err := fmt.Errorf("%w: result %v cannot be forwarded", domain.ErrInvalidInput, run.current)
		return s.fail(run, hop, url, "", err)
	}

	var (
		payload   any
		operation string
		agent     = domain.AgentKind(hop.Target).AgentID()
	)
	if hop.IsDirectConversion() {
		from, to, err := domain.UnitPair(hop.Handoff, s.cfg.LegacyUnitAliases)
		if err != nil {
			return s.fail(run, hop, url, "", err)
		}
		payload = domain.ConversionRequest{Value: value, FromUnit: from, ToUnit: to}
		operation = "convert"
		agent = domain.AgentUnitConverter.AgentID()
	} else {
		msg, err := s.handoffMessage(hop)
		if err != nil {
			return s.fail(run, hop, url, "", err)
		}
		injectResult(msg, value)
		payload = domain.Envelope{
			Sender:        s.cfg.Identity.AgentID,
			CorrelationID: run.env.CorrelationID,
			Trace:         slices.Clone(run.trace),
			Message:       msg,
		}
		operation = msg.Operation
	}

	logger.Info("chain %s hop %d: %s -> %s", run.env.CorrelationID, run.index, operation, url)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	reply, err := s.client.Send(callCtx, url, payload)
	cancel()
	if err != nil {
		return s.fail(run, hop, url, agent, err)
	}
	if reply.Agent != "" {
		agent = reply.Agent
	}
	if err := checkReply(reply, hop.Next != nil); err != nil {
		return s.fail(run, hop, url, agent, err)
	}

	if reply.Response.Operation != "" {
		operation = reply.Response.Operation
	}
	run.steps = append(run.steps, domain.StepRecord{
		Agent:     agent,
		Operation: operation,
		Result:    reply.Response.Result,
	})
	run.trace = extendTrace(run.trace, reply, agent)
	run.last = *reply.Response
	run.current = reply.Response.Result
	run.hop = hop.Next
	if run.hop == nil {
		return stateDone
	}
	return stateForwarding
}

func (s *ChainService) fail(run *chainRun, hop *domain.NextHop, url, agent string, err error) chainState {
	if url == "" {
		url = hop.URL
	}
	run.err = &domain.HopError{Index: run.index, URL: url, Agent: agent, Err: err}
	logger.Warn("chain %s aborted: %v", run.env.CorrelationID, run.err)
	return stateFailed
}

// destination resolves the URL a hop posts to.
func (s *ChainService) destination(hop *domain.NextHop) (string, error) {
	if hop.URL != "" {
		return hop.URL, nil
	}
	if hop.Target == "" {
		return "", fmt.Errorf("%w: next hop has neither url nor target", domain.ErrInvalidInput)
	}
	base, err := s.peers.Snapshot().ForTarget(hop.Target)
	if err != nil {
		return "", err
	}
	return base + "/message", nil
}

// handoffMessage builds the forwarded message. A handoff with unit fields
// and no operation asks for a conversion.
func (s *ChainService) handoffMessage(hop *domain.NextHop) (domain.Message, error) {
	if !hop.Handoff.Has("operation") {
		if from, to, err := domain.UnitPair(hop.Handoff, s.cfg.LegacyUnitAliases); err == nil {
			return domain.Message{
				Operation: "convert",
				Data:      domain.Data{"from_unit": from, "to_unit": to},
			}, nil
		}
	}
	return hop.Message()
}

// injectResult places value in the forwarded data. Statistics over a list
// also get value prepended to an existing numbers list.
func injectResult(msg domain.Message, value float64) {
	if !msg.Data.Has("value") {
		msg.Data["value"] = value
	}
	if !domain.IsListStatistic(msg.Operation) {
		return
	}
	if numbers, ok := domain.AsNumbers(msg.Data["numbers"]); ok {
		msg.Data["numbers"] = append([]float64{value}, numbers...)
	}
}

// checkReply reports why a reply cannot continue the chain. A non-numeric
// result is acceptable only from the last hop.
func checkReply(reply domain.PeerReply, more bool) error {
	if reply.Response == nil {
		if reply.Error != "" {
			return fmt.Errorf("%w: %s", domain.ErrDownstreamFailed, reply.Error)
		}
		return fmt.Errorf("%w: reply has no response", domain.ErrMalformedDownstreamResponse)
	}
	if !reply.Response.Success {
		return fmt.Errorf("%w: %s", domain.ErrDownstreamFailed, reply.Response.Error)
	}
	if reply.Response.Result == nil {
		return fmt.Errorf("%w: reply has no result", domain.ErrMalformedDownstreamResponse)
	}
	if _, ok := reply.Response.Numeric(); more && !ok {
		return fmt.Errorf("%w: result %v is not a number", domain.ErrMalformedDownstreamResponse, reply.Response.Result)
	}
	return nil
}

// extendTrace adopts the downstream trace when it extends ours, otherwise
// appends the downstream hop's identity.
func extendTrace(trace []string, reply domain.PeerReply, agent string) []string {
	if len(reply.Trace) > len(trace) && slices.Equal(reply.Trace[:len(trace)], trace) {
		return slices.Clone(reply.Trace)
	}
	if reply.Identity != "" {
		return append(trace, reply.Identity)
	}
	return append(trace, agent)
}

func (s *ChainService) respond(run *chainRun, final any) domain.ChainResponse {
	sender := run.env.Sender
	if sender == "" {
		sender = "unknown"
	}
	resp := domain.ChainResponse{
		Agent:         s.cfg.Identity.AgentID,
		Identity:      s.cfg.Identity.String(),
		ServerIP:      s.cfg.Identity.Host,
		Sender:        sender,
		Response:      run.last,
		CorrelationID: run.env.CorrelationID,
		Trace:         run.trace,
		Steps:         run.steps,
		Final:         final,
		Timestamp:     s.now(),
	}
	if run.err != nil {
		resp.Response = domain.Failed("", run.err)
	}
	return resp
}
