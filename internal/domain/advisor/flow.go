package advisor

import (
	"errors"
	"log/slog"

	"github.com/yanqian/ai-stockassistant/internal/infra/llm/gemini"
)

// Stage is a step of the question answering flow.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageClassifying Stage = "classifying"
	StageRejected    Stage = "rejected"
	StageCacheHit    Stage = "cache_hit"
	StageRequesting  Stage = "requesting"
	StageResponding  Stage = "responding"
	StageShaping     Stage = "shaping"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

var transitions = map[Stage][]Stage{
	StageIdle:        {StageClassifying},
	StageClassifying: {StageRejected, StageCacheHit, StageRequesting},
	StageRequesting:  {StageResponding, StageFailed},
	StageResponding:  {StageShaping},
	StageShaping:     {StageDone},
}

// Terminal reports whether no further transition leaves s.
func (s Stage) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

func canTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrorKind classifies why a query did not produce a model answer.
type ErrorKind string

const (
	KindOffTopic          ErrorKind = "off_topic"
	KindInvalidEndpoint   ErrorKind = "invalid_endpoint"
	KindSerialization     ErrorKind = "serialization"
	KindTransport         ErrorKind = "transport"
	KindHTTP              ErrorKind = "http"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// User facing replies for non-answers.
const (
	OffTopicReply     = "I'm your AI stock assistant, so I can only answer questions about stocks, trading, investing, and financial markets. For other topics, please consult a general AI assistant."
	ConnectivityReply = "Error connecting to analysis service."
	NetworkReply      = "Network error. Please check your connection and try again."
	PreparationReply  = "Error preparing request."
	MalformedReply    = "Unable to analyze that stock question. Please try a more specific stock-related query."
	apiErrorPrefix    = "API Error: "
)

// describeFailure maps a generation error onto its kind and display text.
func describeFailure(err error) (ErrorKind, string) {
	var statusErr *gemini.StatusError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.Message != "" {
			return KindHTTP, apiErrorPrefix + statusErr.Message
		}
		return KindHTTP, ConnectivityReply
	case errors.Is(err, gemini.ErrInvalidEndpoint):
		return KindInvalidEndpoint, ConnectivityReply
	case errors.Is(err, gemini.ErrEncodeRequest):
		return KindSerialization, PreparationReply
	case errors.Is(err, gemini.ErrDecodeResponse):
		return KindMalformedResponse, MalformedReply
	default:
		return KindTransport, NetworkReply
	}
}

// run tracks the stages one query passes through.
type run struct {
	stage  Stage
	trail  []Stage
	logger *slog.Logger
}

func newRun(logger *slog.Logger) *run {
	return &run{stage: StageIdle, trail: []Stage{StageIdle}, logger: logger}
}

func (r *run) enter(next Stage) {
	if !canTransition(r.stage, next) {
		r.logger.Error("invalid advisor transition", "from", r.stage, "to", next)
	}
	r.logger.Debug("advisor stage", "from", r.stage, "to", next)
	r.stage = next
	r.trail = append(r.trail, next)
}
