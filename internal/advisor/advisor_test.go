package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/models"
)

const validAdvisory = `{
  "tone_analysis": {"overall_sentiment": "tense", "urgency_level": "high", "formality_level": "casual"},
  "suggestions": [
    {"type": "clarity", "priority": "low", "message": "Name a date", "reasoning": "Vague deadlines slip"},
    {"type": "de_escalation", "priority": "high", "message": "Soften the opener", "reasoning": "The team is under pressure"}
  ],
  "boosted_message": "Could we aim to finish this by Friday?",
  "immediate_action": "Check in with the team"
}`

type completionServer struct {
	*httptest.Server
	hits     atomic.Int32
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

func newCompletionServer(t *testing.T, reply func(req openai.ChatCompletionRequest) (int, string)) *completionServer {
	t.Helper()
	s := &completionServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		status, content := reply(req)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *completionServer) lastRequest() openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newTestAdvisor(srv *completionServer, timeout time.Duration) *Advisor {
	return New(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Timeout: timeout,
	}, nil, zap.NewNop())
}

func fixed(content string) func(openai.ChatCompletionRequest) (int, string) {
	return func(openai.ChatCompletionRequest) (int, string) { return http.StatusOK, content }
}

func TestAnalyzeSuccessAndCache(t *testing.T) {
	srv := newCompletionServer(t, fixed(validAdvisory))
	a := newTestAdvisor(srv, time.Second)

	got, err := a.Analyze(context.Background(), "Finish this ASAP", models.ChannelInfo{})
	require.NoError(t, err)
	require.Equal(t, "tense", got.ToneAnalysis.OverallSentiment)
	require.Len(t, got.Suggestions, 2)
	require.Equal(t, "Could we aim to finish this by Friday?", got.BoostedMessage)

	again, err := a.Analyze(context.Background(), "  finish THIS asap ", models.ChannelInfo{})
	require.NoError(t, err)
	require.Equal(t, got, again)
	require.Equal(t, int32(1), srv.hits.Load(), "second call should be served from cache")
}

func TestAnalyzeCachedResultIsIsolated(t *testing.T) {
	srv := newCompletionServer(t, fixed(validAdvisory))
	a := newTestAdvisor(srv, time.Second)

	first, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
	require.NoError(t, err)
	first.Suggestions[0].Message = "edited"

	second, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
	require.NoError(t, err)
	require.Equal(t, "Name a date", second.Suggestions[0].Message)
	second.Suggestions[0], second.Suggestions[1] = second.Suggestions[1], second.Suggestions[0]

	third, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
	require.NoError(t, err)
	require.Equal(t, "Name a date", third.Suggestions[0].Message)
	require.Equal(t, int32(1), srv.hits.Load())
}

func TestAnalyzePromptShape(t *testing.T) {
	srv := newCompletionServer(t, fixed(validAdvisory))
	a := newTestAdvisor(srv, time.Second)
	a.AddToContext("Where are we on the release?", models.RoleUser)
	a.AddToContext("Ask for a status update", models.RoleAssistant)

	_, err := a.Analyze(context.Background(), "Status?", models.ChannelInfo{Name: "eng"})
	require.NoError(t, err)

	req := srv.lastRequest()
	require.Equal(t, DefaultModel, req.Model)
	require.InDelta(t, 0.3, req.Temperature, 0.001)
	require.Equal(t, 500, req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
	require.Len(t, req.Messages, 2)
	require.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	require.Contains(t, req.Messages[0].Content, "Channel context: eng (Unknown)")
	require.Contains(t, req.Messages[1].Content, "user: Where are we on the release?\nassistant: Ask for a status update")
	require.Contains(t, req.Messages[1].Content, `User's current message: "Status?"`)
}

func TestAnalyzeCredentialMissing(t *testing.T) {
	srv := newCompletionServer(t, fixed(validAdvisory))
	a := New(Config{BaseURL: srv.URL + "/v1"}, nil, zap.NewNop())

	_, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
	require.ErrorIs(t, err, ErrCredentialMissing)
	require.Equal(t, KindCredentialMissing, KindOf(err))
	require.Zero(t, srv.hits.Load())
}

func TestAnalyzeNonSuccessStatus(t *testing.T) {
	srv := newCompletionServer(t, func(openai.ChatCompletionRequest) (int, string) {
		return http.StatusServiceUnavailable, ""
	})
	a := newTestAdvisor(srv, time.Second)

	_, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
	require.ErrorIs(t, err, ErrNetworkFailure)

	var advErr *Error
	require.True(t, errors.As(err, &advErr))
	require.Equal(t, http.StatusServiceUnavailable, advErr.Status)
	require.Equal(t, opAnalyze, advErr.Op)
}

func TestAnalyzeValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "Sure! Here is my analysis."},
		{"fenced json", "```json\n" + validAdvisory + "\n```"},
		{"missing tone analysis", `{"suggestions": [], "boosted_message": "x"}`},
		{"null suggestions", `{"tone_analysis": {"overall_sentiment": "positive", "urgency_level": "low", "formality_level": "casual"}, "suggestions": null}`},
		{"incomplete tone analysis", `{"tone_analysis": {"overall_sentiment": "positive"}, "suggestions": []}`},
		{"unknown priority", `{"tone_analysis": {"overall_sentiment": "positive", "urgency_level": "low", "formality_level": "casual"}, "suggestions": [{"type": "clarity", "priority": "urgent", "message": "x"}]}`},
		{"suggestion without type", `{"tone_analysis": {"overall_sentiment": "positive", "urgency_level": "low", "formality_level": "casual"}, "suggestions": [{"priority": "high", "message": "x", "reasoning": "y"}]}`},
		{"suggestion without reasoning", `{"tone_analysis": {"overall_sentiment": "positive", "urgency_level": "low", "formality_level": "casual"}, "suggestions": [{"type": "clarity", "priority": "high", "message": "x"}]}`},
		{"suggestion not an object", `{"tone_analysis": {"overall_sentiment": "positive", "urgency_level": "low", "formality_level": "casual"}, "suggestions": ["be nicer"]}`},
		{"wrong field type", `{"tone_analysis": {"overall_sentiment": "positive", "urgency_level": "low", "formality_level": "casual"}, "suggestions": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCompletionServer(t, fixed(tt.content))
			a := newTestAdvisor(srv, time.Second)

			_, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
			require.ErrorIs(t, err, ErrValidationFailure)

			_, err = a.Analyze(context.Background(), "hello", models.ChannelInfo{})
			require.ErrorIs(t, err, ErrValidationFailure)
			require.Equal(t, int32(2), srv.hits.Load(), "failures must not be cached")
		})
	}
}

func TestAnalyzeOptionalFields(t *testing.T) {
	srv := newCompletionServer(t, fixed(`{"tone_analysis": {"overall_sentiment": "neutral", "urgency_level": "low", "formality_level": "professional"}, "suggestions": []}`))
	a := newTestAdvisor(srv, time.Second)

	got, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
	require.NoError(t, err)
	require.Empty(t, got.BoostedMessage)
	require.Empty(t, got.Suggestions)
}

func TestAnalyzeTimeout(t *testing.T) {
	srv := newCompletionServer(t, func(openai.ChatCompletionRequest) (int, string) {
		time.Sleep(500 * time.Millisecond)
		return http.StatusOK, validAdvisory
	})
	a := newTestAdvisor(srv, 50*time.Millisecond)

	start := time.Now()
	_, err := a.Analyze(context.Background(), "hello", models.ChannelInfo{})
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestScoreOnly(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		srv := newCompletionServer(t, fixed(`{"score": 85, "description": "Professional and clear", "improvements": ["Could be more collaborative"]}`))
		a := newTestAdvisor(srv, time.Second)

		got, err := a.ScoreOnly(context.Background(), "hello")
		require.NoError(t, err)
		require.Equal(t, 85, got.Score)
		require.Equal(t, []string{"Could be more collaborative"}, got.Improvements)

		req := srv.lastRequest()
		require.InDelta(t, 0.1, req.Temperature, 0.001)
		require.Equal(t, 150, req.MaxTokens)
	})

	invalid := []string{
		`{"score": 85.5, "description": "x"}`,
		`{"score": 120, "description": "x"}`,
		`{"score": "85", "description": "x"}`,
		`{"score": 85}`,
		`{"description": "x"}`,
		`85`,
	}
	for _, content := range invalid {
		t.Run(content, func(t *testing.T) {
			srv := newCompletionServer(t, fixed(content))
			a := newTestAdvisor(srv, time.Second)

			_, err := a.ScoreOnly(context.Background(), "hello")
			require.ErrorIs(t, err, ErrValidationFailure)
		})
	}
}

func TestRewrite(t *testing.T) {
	srv := newCompletionServer(t, func(req openai.ChatCompletionRequest) (int, string) {
		switch {
		case req.Messages[0].Content == rewriteSystemPrompt:
			return http.StatusOK, "  Could we finish this by Friday?  "
		case strings.Contains(req.Messages[1].Content, "ASAP"):
			return http.StatusOK, `{"score": 40, "description": "Pushy"}`
		default:
			return http.StatusOK, `{"score": 75, "description": "Collaborative"}`
		}
	})
	a := newTestAdvisor(srv, time.Second)

	got, err := a.Rewrite(context.Background(), "Finish this ASAP")
	require.NoError(t, err)
	require.Equal(t, "Could we finish this by Friday?", got.Boosted)
	require.Equal(t, 40, got.OriginalScore)
	require.Equal(t, 75, got.BoostedScore)
	require.Equal(t, 35, got.ScoreDelta)
	require.Equal(t, int32(3), srv.hits.Load())
}

func TestRewriteEmptyReply(t *testing.T) {
	srv := newCompletionServer(t, fixed("   "))
	a := newTestAdvisor(srv, time.Second)

	_, err := a.Rewrite(context.Background(), "hello")
	require.ErrorIs(t, err, ErrValidationFailure)
}

func TestSetAPIKey(t *testing.T) {
	a := New(Config{}, nil, zap.NewNop())
	require.False(t, a.HasCredential())

	a.SetAPIKey("sk-test")
	require.True(t, a.HasCredential())

	a.SetAPIKey("  ")
	require.False(t, a.HasCredential())
}

func TestContextManagement(t *testing.T) {
	a := New(Config{ContextSize: 3}, nil, zap.NewNop())
	for _, text := range []string{"a", "b", "c", "d"} {
		a.AddToContext(text, models.RoleUser)
	}

	got := a.Context()
	require.Len(t, got, 3)
	require.Equal(t, "b", got[0].Text)

	a.ClearContext()
	require.Empty(t, a.Context())
}

func TestConcurrentAnalyze(t *testing.T) {
	srv := newCompletionServer(t, fixed(validAdvisory))
	a := newTestAdvisor(srv, time.Second)

	errs := make(chan error, 10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.AddToContext("draft", models.RoleUser)
			_, err := a.Analyze(context.Background(), "same draft", models.ChannelInfo{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 10, a.conversation.Len())
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindNetwork, Op: "analyze", Status: 502, Err: errors.New("bad gateway")}
	require.Equal(t, "analyze: remote call failed (status 502): bad gateway", err.Error())
	require.ErrorIs(t, err, ErrNetworkFailure)
	require.NotErrorIs(t, err, ErrTimeout)
	require.Equal(t, Kind(""), KindOf(errors.New("other")))
}
