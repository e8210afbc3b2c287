package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-stockassistant/internal/infra/llm/gemini"
	apperrors "github.com/yanqian/ai-stockassistant/pkg/errors"
	"github.com/yanqian/ai-stockassistant/pkg/logger"
)

func TestAskEndToEndCachesShapedReply(t *testing.T) {
	client := &stubClient{resp: textResponse("TSLA deliveries beat estimates.\n\nMargins are recovering. This is not financial advice.")}
	client.resp.UsageMetadata = &gemini.UsageMetadata{PromptTokenCount: 120, CandidatesTokenCount: 30}
	store := newMapStore()
	history := &stubHistory{}
	svc := newTestService(t, Config{}, client, store, history, nil)

	first, err := svc.Ask(context.Background(), Request{Query: "Should I buy TSLA?"})
	require.NoError(t, err)
	require.Equal(t, "• TSLA deliveries beat estimates.\n• Margins are recovering.", first.Reply)
	require.Equal(t, StageDone, first.Outcome)
	require.Equal(t, SourceLLM, first.Source)
	require.Empty(t, first.ErrorKind)
	require.Equal(t, []Stage{StageIdle, StageClassifying, StageRequesting, StageResponding, StageShaping, StageDone}, first.Stages)
	require.NotNil(t, first.TokenUsage)
	require.Equal(t, 150, first.TokenUsage.TotalTokens)
	require.False(t, first.TokenUsage.Estimated)

	entry, ok, err := store.Get(context.Background(), "should i buy tsla?")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first.Reply, entry.Response)

	second, err := svc.Ask(context.Background(), Request{Query: "  should i buy tsla?  ", ConversationID: first.ConversationID})
	require.NoError(t, err)
	require.Equal(t, first.Reply, second.Reply)
	require.Equal(t, SourceCache, second.Source)
	require.Equal(t, StageCacheHit, second.Outcome)
	require.Nil(t, second.TokenUsage)
	require.Equal(t, 1, client.callCount())

	require.Len(t, history.messages, 4)
	require.Equal(t, RoleUser, history.messages[0].Role)
	require.Equal(t, "Should I buy TSLA?", history.messages[0].Text)
	require.Equal(t, AnonymousUser, history.messages[0].UserID)
	require.Equal(t, StageCacheHit, history.messages[3].Outcome)
}

func TestAskBuildsTemplatedRequest(t *testing.T) {
	client := &stubClient{resp: textResponse("AAPL looks fairly valued.")}
	svc := newTestService(t, Config{}, client, newMapStore(), nil, nil)

	_, err := svc.Ask(context.Background(), Request{Query: "Is AAPL overvalued?"})
	require.NoError(t, err)

	req := client.lastRequest()
	require.Len(t, req.Contents, 1)
	require.Len(t, req.Contents[0].Parts, 1)
	prompt := req.Contents[0].Parts[0].Text
	require.True(t, strings.HasPrefix(prompt, "You are a professional stock analyst"))
	require.True(t, strings.HasSuffix(prompt, "User Question: Is AAPL overvalued?"))
	require.Equal(t, float32(0.3), req.GenerationConfig.Temperature)
	require.Equal(t, 40, req.GenerationConfig.TopK)
	require.Equal(t, float32(0.8), req.GenerationConfig.TopP)
	require.Equal(t, 300, req.GenerationConfig.MaxOutputTokens)
	require.Len(t, req.SafetySettings, 4)
	for _, setting := range req.SafetySettings {
		require.Equal(t, "BLOCK_MEDIUM_AND_ABOVE", setting.Threshold)
	}
}

func TestAskRejectsOffTopicWithoutCalls(t *testing.T) {
	client := &stubClient{resp: textResponse("unused")}
	store := newMapStore()
	svc := newTestService(t, Config{}, client, store, nil, nil)

	resp, err := svc.Ask(context.Background(), Request{Query: "What's the weather today?"})
	require.NoError(t, err)
	require.Equal(t, OffTopicReply, resp.Reply)
	require.Equal(t, StageRejected, resp.Outcome)
	require.Equal(t, SourcePolicy, resp.Source)
	require.Equal(t, KindOffTopic, resp.ErrorKind)
	require.Zero(t, client.callCount())
	require.Zero(t, store.puts)
}

func TestAskMapsFailures(t *testing.T) {
	tests := []struct {
		name  string
		resp  gemini.GenerateContentResponse
		err   error
		kind  ErrorKind
		reply string
	}{
		{
			name:  "api error with message",
			err:   &gemini.StatusError{StatusCode: 400, Message: "API key not valid"},
			kind:  KindHTTP,
			reply: "API Error: API key not valid",
		},
		{
			name:  "api error without message",
			err:   &gemini.StatusError{StatusCode: 503, Body: "<html>"},
			kind:  KindHTTP,
			reply: ConnectivityReply,
		},
		{
			name:  "invalid endpoint",
			err:   fmt.Errorf("%w: bad scheme", gemini.ErrInvalidEndpoint),
			kind:  KindInvalidEndpoint,
			reply: ConnectivityReply,
		},
		{
			name:  "encode failure",
			err:   fmt.Errorf("%w: boom", gemini.ErrEncodeRequest),
			kind:  KindSerialization,
			reply: PreparationReply,
		},
		{
			name:  "transport failure",
			err:   fmt.Errorf("%w: %w", gemini.ErrTransport, context.DeadlineExceeded),
			kind:  KindTransport,
			reply: NetworkReply,
		},
		{
			name:  "undecodable body",
			err:   fmt.Errorf("%w: unexpected end of JSON input", gemini.ErrDecodeResponse),
			kind:  KindMalformedResponse,
			reply: MalformedReply,
		},
		{
			name:  "no candidates",
			resp:  gemini.GenerateContentResponse{},
			kind:  KindMalformedResponse,
			reply: MalformedReply,
		},
		{
			name:  "candidate without parts",
			resp:  gemini.GenerateContentResponse{Candidates: []gemini.Candidate{{Content: &gemini.Content{}}}},
			kind:  KindMalformedResponse,
			reply: MalformedReply,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMapStore()
			client := &stubClient{resp: tc.resp, err: tc.err}
			svc := newTestService(t, Config{}, client, store, nil, nil)

			resp, err := svc.Ask(context.Background(), Request{Query: "Is NVDA a buy?"})
			require.NoError(t, err)
			require.Equal(t, tc.kind, resp.ErrorKind)
			require.Equal(t, tc.reply, resp.Reply)
			require.Equal(t, StageFailed, resp.Outcome)
			require.Equal(t, SourceLLM, resp.Source)
			require.Zero(t, store.puts)
		})
	}
}

func TestAskFailureIsNotCached(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("%w: reset", gemini.ErrTransport)}
	svc := newTestService(t, Config{}, client, newMapStore(), nil, nil)

	_, err := svc.Ask(context.Background(), Request{Query: "MSFT outlook"})
	require.NoError(t, err)

	client.set(textResponse("MSFT cloud growth remains strong."), nil)
	resp, err := svc.Ask(context.Background(), Request{Query: "MSFT outlook"})
	require.NoError(t, err)
	require.Equal(t, SourceLLM, resp.Source)
	require.Equal(t, StageDone, resp.Outcome)
	require.Equal(t, 2, client.callCount())
}

func TestAskExpiredEntryRefetches(t *testing.T) {
	t0 := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	clock := newTestClock(t0)
	client := &stubClient{resp: textResponse("JPM earnings were solid.")}
	svc := newService(Config{}, client, newMapStore(), nil, nil, logger.Discard(), clock.Now)

	_, err := svc.Ask(context.Background(), Request{Query: "JPM earnings"})
	require.NoError(t, err)

	clock.Set(t0.Add(299 * time.Second))
	resp, err := svc.Ask(context.Background(), Request{Query: "JPM earnings"})
	require.NoError(t, err)
	require.Equal(t, SourceCache, resp.Source)

	clock.Set(t0.Add(301 * time.Second))
	resp, err = svc.Ask(context.Background(), Request{Query: "JPM earnings"})
	require.NoError(t, err)
	require.Equal(t, SourceLLM, resp.Source)
	require.Equal(t, 2, client.callCount())
}

func TestAskEstimatesUsageWhenMissing(t *testing.T) {
	client := &stubClient{resp: textResponse("KO pays a steady dividend.")}
	svc := newTestService(t, Config{}, client, newMapStore(), nil, wordCounter{})

	resp, err := svc.Ask(context.Background(), Request{Query: "Is KO a good investment?"})
	require.NoError(t, err)
	require.NotNil(t, resp.TokenUsage)
	require.True(t, resp.TokenUsage.Estimated)
	require.Equal(t, 5, resp.TokenUsage.CompletionTokens)
	require.Equal(t, resp.TokenUsage.PromptTokens+5, resp.TokenUsage.TotalTokens)
}

func TestAskRejectsOverlongQuery(t *testing.T) {
	client := &stubClient{resp: textResponse("unused")}
	svc := newTestService(t, Config{MaxQueryLength: 10}, client, newMapStore(), nil, nil)

	_, err := svc.Ask(context.Background(), Request{Query: "What is the AAPL price target?"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, client.callCount())
}

func TestAskKeepsConversationID(t *testing.T) {
	client := &stubClient{resp: textResponse("Dow futures are flat.")}
	svc := newTestService(t, Config{}, client, newMapStore(), nil, nil)

	resp, err := svc.Ask(context.Background(), Request{Query: "dow futures?", ConversationID: "conv-1"})
	require.NoError(t, err)
	require.Equal(t, "conv-1", resp.ConversationID)

	resp, err = svc.Ask(context.Background(), Request{Query: "dow futures?"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ConversationID)
	require.NotEqual(t, "conv-1", resp.ConversationID)
}

func TestAskHistoryFailureStillAnswers(t *testing.T) {
	client := &stubClient{resp: textResponse("Netflix subscriber growth slowed.")}
	history := &stubHistory{appendErr: errors.New("db down")}
	svc := newTestService(t, Config{}, client, newMapStore(), history, nil)

	resp, err := svc.Ask(context.Background(), Request{Query: "NFLX subscribers"})
	require.NoError(t, err)
	require.Equal(t, StageDone, resp.Outcome)
}

func TestHistoryPrependsGreeting(t *testing.T) {
	history := &stubHistory{}
	svc := newTestService(t, Config{Greeting: "Hello! Ask me about stocks."}, &stubClient{resp: textResponse("PFE pipeline update.")}, newMapStore(), history, nil)

	resp, err := svc.Ask(context.Background(), Request{Query: "PFE news", UserID: "user-1"})
	require.NoError(t, err)

	messages, err := svc.History(context.Background(), "user-1", resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "greeting", messages[0].ID)
	require.Equal(t, RoleAssistant, messages[0].Role)
	require.Equal(t, RoleUser, messages[1].Role)
	require.Equal(t, RoleAssistant, messages[2].Role)

	others, err := svc.History(context.Background(), "user-2", resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, others, 1)
}

func TestHistoryValidation(t *testing.T) {
	svc := newTestService(t, Config{}, &stubClient{}, newMapStore(), &stubHistory{listErr: errors.New("db down")}, nil)

	_, err := svc.History(context.Background(), "user-1", " ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.History(context.Background(), "user-1", "conv-1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeStoreError))
}

func TestConcurrentIdenticalQueriesShareOneCall(t *testing.T) {
	release := make(chan struct{})
	client := &stubClient{resp: textResponse("META ad revenue rebounded."), gate: release}
	svc := newTestService(t, Config{}, client, newMapStore(), nil, nil)

	const callers = 4
	var wg sync.WaitGroup
	replies := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Ask(context.Background(), Request{Query: "META revenue"})
			assert.NoError(t, err)
			replies[i] = resp.Reply
		}(i)
	}

	require.Eventually(t, func() bool { return client.callCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, reply := range replies {
		require.Equal(t, "META ad revenue rebounded.", reply)
	}
	require.Equal(t, 1, client.callCount())
}

func newTestService(t *testing.T, cfg Config, client GenerationClient, store Store, history HistoryRepository, counter TokenCounter) *service {
	t.Helper()
	return newService(cfg, client, store, history, counter, logger.Discard(), time.Now)
}

func textResponse(text string) gemini.GenerateContentResponse {
	return gemini.GenerateContentResponse{
		Candidates: []gemini.Candidate{{Content: &gemini.Content{Role: "model", Parts: []gemini.Part{{Text: text}}}}},
	}
}

type stubClient struct {
	mu    sync.Mutex
	resp  gemini.GenerateContentResponse
	err   error
	calls int
	last  gemini.GenerateContentRequest
	gate  chan struct{}
}

func (s *stubClient) GenerateContent(ctx context.Context, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error) {
	s.mu.Lock()
	s.calls++
	s.last = req
	resp, err, gate := s.resp, s.err, s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return gemini.GenerateContentResponse{}, ctx.Err()
		}
	}
	return resp, err
}

func (s *stubClient) set(resp gemini.GenerateContentResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resp, s.err = resp, err
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubClient) lastRequest() gemini.GenerateContentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type stubHistory struct {
	mu        sync.Mutex
	messages  []Message
	appendErr error
	listErr   error
}

func (h *stubHistory) Append(_ context.Context, messages ...Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	h.messages = append(h.messages, messages...)
	return nil
}

func (h *stubHistory) List(_ context.Context, userID, conversationID string) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	var out []Message
	for _, msg := range h.messages {
		if msg.UserID == userID && msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}
