package domain

import (
	"fmt"
	"strings"
	"time"
)

// Message is the operation request carried by an envelope.
type Message struct {
	Operation string `json:"operation"`
	Data      Data   `json:"data"`
}

// Envelope is the JSON wrapper exchanged between services.
type Envelope struct {
	Sender        string   `json:"sender"`
	CorrelationID string   `json:"correlation_id,omitempty"`
	Trace         []string `json:"trace"`
	Message       Message  `json:"message"`
	Next          *NextHop `json:"next,omitempty"`
}

// Validate checks the envelope carries an operation.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.Message.Operation) == "" {
		return fmt.Errorf("%w: message.operation is required", ErrInvalidInput)
	}
	return nil
}

// NextHop describes where a result is forwarded and what is asked of it there.
// Either URL or Target names the destination; URL wins when both are set.
type NextHop struct {
	URL     string   `json:"url,omitempty"`
	Target  string   `json:"target,omitempty"`
	Handoff Data     `json:"handoff,omitempty"`
	Next    *NextHop `json:"next,omitempty"`
}

// Depth returns the number of hops in the chain starting at h.
func (h *NextHop) Depth() int {
	n := 0
	for hop := h; hop != nil; hop = hop.Next {
		n++
	}
	return n
}

// IsDirectConversion reports whether the hop targets a /convert endpoint.
func (h *NextHop) IsDirectConversion() bool {
	return strings.HasSuffix(strings.TrimRight(h.URL, "/"), "/convert")
}

// Message returns the handoff as the message to forward.
func (h *NextHop) Message() (Message, error) {
	op, _ := h.Handoff.String("operation")
	if strings.TrimSpace(op) == "" {
		return Message{}, fmt.Errorf("%w: handoff.operation is required", ErrInvalidInput)
	}
	msg := Message{Operation: op, Data: Data{}}
	switch data := h.Handoff["data"].(type) {
	case nil:
	case map[string]any:
		msg.Data = Data(data).Clone()
	case Data:
		msg.Data = data.Clone()
	default:
		return Message{}, fmt.Errorf("%w: handoff.data must be an object", ErrInvalidInput)
	}
	return msg, nil
}

// StepRecord is one executed hop of a chain.
type StepRecord struct {
	Agent     string `json:"agent"`
	Operation string `json:"operation"`
	Result    any    `json:"result"`
}

// FailedHop identifies the hop that aborted a chain.
type FailedHop struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Agent string `json:"agent,omitempty"`
}

// ChainResponse is the reply to POST /message.
type ChainResponse struct {
	Agent         string          `json:"agent"`
	Identity      string          `json:"identity"`
	ServerIP      string          `json:"server_ip"`
	Sender        string          `json:"sender"`
	Response      OperationResult `json:"response"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Trace         []string        `json:"trace"`
	Steps         []StepRecord    `json:"steps"`
	Final         any             `json:"final"`
	FailedHop     *FailedHop      `json:"failed_hop,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// DirectReply is the reply to a non-chaining endpoint.
type DirectReply struct {
	Agent     string          `json:"agent"`
	Identity  string          `json:"identity"`
	ServerIP  string          `json:"server_ip"`
	Request   any             `json:"request"`
	Response  OperationResult `json:"response"`
	Timestamp time.Time       `json:"timestamp"`
}

// PeerReply is what the chain reads back from a downstream service.
// It decodes both ChainResponse and DirectReply bodies.
type PeerReply struct {
	Agent    string           `json:"agent"`
	Identity string           `json:"identity"`
	Response *OperationResult `json:"response"`
	Trace    []string         `json:"trace"`
	Final    any              `json:"final"`
	Error    string           `json:"error"`
}

// listStatistics are the statistics operations that take a numbers list.
var listStatistics = map[string]bool{
	"mean":               true,
	"median":             true,
	"mode":               true,
	"standard_deviation": true,
	"range":              true,
	"summary":            true,
}

// IsListStatistic reports whether op is a statistics operation over a list.
func IsListStatistic(op string) bool {
	return listStatistics[op]
}
