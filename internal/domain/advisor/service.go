package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yanqian/ai-stockassistant/internal/infra/llm/gemini"
	apperrors "github.com/yanqian/ai-stockassistant/pkg/errors"
	"github.com/yanqian/ai-stockassistant/pkg/metrics"
	"github.com/yanqian/ai-stockassistant/pkg/util"
)

// Service answers stock questions through the classify, cache, generate and
// shape pipeline.
type Service interface {
	Ask(ctx context.Context, req Request) (Response, error)
	History(ctx context.Context, userID, conversationID string) ([]Message, error)
}

// GenerationClient is the outbound text generation endpoint.
type GenerationClient interface {
	GenerateContent(ctx context.Context, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error)
}

// TokenCounter estimates token counts when the provider omits usage data.
type TokenCounter interface {
	Count(text string) (int, error)
}

type service struct {
	cfg        Config
	classifier *Classifier
	builder    *RequestBuilder
	cache      *ResponseCache
	client     GenerationClient
	history    HistoryRepository
	counter    TokenCounter
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	inflight   singleflight.Group
}

type generation struct {
	reply string
	kind  ErrorKind
	usage *metrics.TokenUsage
}

// NewService wires up the advisor domain. history and counter may be nil.
func NewService(cfg Config, client GenerationClient, store Store, history HistoryRepository, counter TokenCounter, logger *slog.Logger) Service {
	return newService(cfg, client, store, history, counter, logger, util.NowUTC)
}

func newService(cfg Config, client GenerationClient, store Store, history HistoryRepository, counter TokenCounter, logger *slog.Logger, now func() time.Time) *service {
	cfg = cfg.withDefaults()
	return &service{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Vocabulary, cfg.SecondaryThreshold),
		builder:    NewRequestBuilder(cfg),
		cache:      NewResponseCache(store, cfg.CacheTTL, now, logger),
		client:     client,
		history:    history,
		counter:    counter,
		logger:     logger.With("component", "advisor.service"),
		now:        now,
		newID:      func() string { return uuid.NewString() },
	}
}

func (s *service) Ask(ctx context.Context, req Request) (Response, error) {
	start := s.now()
	query := strings.TrimSpace(req.Query)
	if s.cfg.MaxQueryLength > 0 && utf8.RuneCountInString(query) > s.cfg.MaxQueryLength {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "query exceeds maximum length", nil)
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = s.newID()
	}

	flow := newRun(s.logger)
	flow.enter(StageClassifying)

	var resp Response
	switch {
	case !s.classifier.IsRelevant(query):
		flow.enter(StageRejected)
		resp = Response{Reply: OffTopicReply, Source: SourcePolicy, ErrorKind: KindOffTopic}
	default:
		if cached, ok := s.cache.Lookup(ctx, query); ok {
			flow.enter(StageCacheHit)
			resp = Response{Reply: cached, Source: SourceCache}
			break
		}
		flow.enter(StageRequesting)
		gen := s.generate(ctx, query)
		if gen.kind != "" {
			flow.enter(StageFailed)
		} else {
			flow.enter(StageResponding)
			flow.enter(StageShaping)
			flow.enter(StageDone)
		}
		resp = Response{Reply: gen.reply, Source: SourceLLM, ErrorKind: gen.kind, TokenUsage: gen.usage}
	}

	resp.ConversationID = conversationID
	resp.Query = query
	resp.Outcome = flow.stage
	resp.Stages = flow.trail
	resp.DurationMs = s.now().Sub(start).Milliseconds()

	s.record(ctx, req.UserID, conversationID, start, resp)
	s.logger.Info("advisor query answered", "outcome", resp.Outcome, "source", resp.Source, "error_kind", resp.ErrorKind, "duration_ms", resp.DurationMs)
	return resp, nil
}

func (s *service) History(ctx context.Context, userID, conversationID string) ([]Message, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "conversation id cannot be empty", nil)
	}
	out := make([]Message, 0, 1)
	if greeting := strings.TrimSpace(s.cfg.Greeting); greeting != "" {
		out = append(out, Message{
			ID:             "greeting",
			ConversationID: conversationID,
			Role:           RoleAssistant,
			Text:           greeting,
		})
	}
	if s.history == nil {
		return out, nil
	}
	stored, err := s.history.List(ctx, ownerOf(userID), conversationID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "failed to load conversation", err)
	}
	return append(out, stored...), nil
}

// generate performs the outbound call once per normalized query, sharing the
// result with identical questions that arrive while it is in flight.
func (s *service) generate(ctx context.Context, query string) generation {
	v, _, _ := s.inflight.Do(NormalizeKey(query), func() (any, error) {
		return s.requestAndShape(ctx, query), nil
	})
	return v.(generation)
}

func (s *service) requestAndShape(ctx context.Context, query string) generation {
	req := s.builder.Build(query)
	resp, err := s.client.GenerateContent(ctx, req)
	if err != nil {
		kind, reply := describeFailure(err)
		s.logger.Warn("generation request failed", "error_kind", kind, "error", err)
		return generation{reply: reply, kind: kind}
	}

	text, ok := resp.FirstText()
	if !ok {
		s.logger.Warn("generation response missing candidate text")
		return generation{reply: MalformedReply, kind: KindMalformedResponse}
	}

	shaped := ShapeResponse(text, s.cfg.Disclaimers)
	s.cache.Store(context.WithoutCancel(ctx), query, shaped)
	return generation{reply: shaped, usage: s.usage(resp, req, text)}
}

func (s *service) usage(resp gemini.GenerateContentResponse, req gemini.GenerateContentRequest, completion string) *metrics.TokenUsage {
	if meta := resp.UsageMetadata; meta != nil {
		usage := metrics.TokenUsage{
			PromptTokens:     meta.PromptTokenCount,
			CompletionTokens: meta.CandidatesTokenCount,
			TotalTokens:      meta.TotalTokenCount,
		}.Normalize()
		if !usage.IsZero() {
			return &usage
		}
	}
	if s.counter == nil {
		return nil
	}
	var prompt strings.Builder
	for _, content := range req.Contents {
		for _, part := range content.Parts {
			prompt.WriteString(part.Text)
		}
	}
	promptTokens, err := s.counter.Count(prompt.String())
	if err != nil {
		s.logger.Debug("token estimate failed", "error", err)
		return nil
	}
	completionTokens, err := s.counter.Count(completion)
	if err != nil {
		s.logger.Debug("token estimate failed", "error", err)
		return nil
	}
	usage := metrics.TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Estimated:        true,
	}.Normalize()
	return &usage
}

func (s *service) record(ctx context.Context, userID, conversationID string, askedAt time.Time, resp Response) {
	if s.history == nil {
		return
	}
	owner := ownerOf(userID)
	messages := []Message{
		{
			ID:             s.newID(),
			ConversationID: conversationID,
			UserID:         owner,
			Role:           RoleUser,
			Text:           resp.Query,
			CreatedAt:      askedAt,
		},
		{
			ID:             s.newID(),
			ConversationID: conversationID,
			UserID:         owner,
			Role:           RoleAssistant,
			Text:           resp.Reply,
			Outcome:        resp.Outcome,
			CreatedAt:      s.now(),
		},
	}
	if err := s.history.Append(context.WithoutCancel(ctx), messages...); err != nil {
		s.logger.Warn("conversation append failed", "conversation_id", conversationID, "error", err)
	}
}

func ownerOf(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return AnonymousUser
	}
	return userID
}
