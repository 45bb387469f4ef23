// Package advisor asks a remote chat-completion model for tone analysis,
// scores and rewrites. It never falls back to local heuristics: every failure
// is returned to the caller as an *Error.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/cache"
	"github.com/xaenox/mgmt-boost/internal/metrics"
	"github.com/xaenox/mgmt-boost/internal/models"
)

const (
	DefaultModel   = openai.GPT3Dot5Turbo
	DefaultTimeout = 10 * time.Second

	opAnalyze = "analyze"
	opScore   = "score"
	opRewrite = "rewrite"

	analyzeKeyPrefix = "analyze_"
)

type callParams struct {
	temperature float32
	maxTokens   int
	jsonReply   bool
}

var opParams = map[string]callParams{
	opAnalyze: {temperature: 0.3, maxTokens: 500, jsonReply: true},
	opScore:   {temperature: 0.1, maxTokens: 150, jsonReply: true},
	opRewrite: {temperature: 0.3, maxTokens: 200},
}

// Config controls how the advisor reaches the completion service.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	CacheTTL    time.Duration
	ContextSize int
}

// Advisor owns the analysis cache and conversation context for one session.
// All methods are safe for concurrent use.
type Advisor struct {
	mu      sync.RWMutex
	client  *openai.Client
	baseURL string
	model   string
	timeout time.Duration

	cache        *cache.Cache[models.Advisory]
	conversation *Conversation
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func New(cfg Config, m *metrics.Metrics, logger *zap.Logger) *Advisor {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	a := &Advisor{
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
		timeout:      cfg.Timeout,
		cache:        cache.New[models.Advisory](cfg.CacheTTL),
		conversation: NewConversation(cfg.ContextSize),
		metrics:      m,
		logger:       logger,
	}
	a.SetAPIKey(cfg.APIKey)
	return a
}

// SetAPIKey replaces the bearer credential. An empty key removes it.
func (a *Advisor) SetAPIKey(key string) {
	key = strings.TrimSpace(key)

	a.mu.Lock()
	defer a.mu.Unlock()

	if key == "" {
		a.client = nil
		return
	}
	config := openai.DefaultConfig(key)
	if a.baseURL != "" {
		config.BaseURL = a.baseURL
	}
	a.client = openai.NewClientWithConfig(config)
}

func (a *Advisor) HasCredential() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client != nil
}

// AddToContext records a conversation turn for later prompts.
func (a *Advisor) AddToContext(text string, role models.SpeakerRole) {
	a.conversation.Append(text, role)
}

func (a *Advisor) ClearContext() {
	a.conversation.Clear()
}

// Context returns the remembered conversation, oldest first.
func (a *Advisor) Context() []models.ContextEntry {
	return a.conversation.Entries()
}

// Analyze asks the model for a structured advisory on text in the light of the
// conversation so far. Results are cached per normalized text.
func (a *Advisor) Analyze(ctx context.Context, text string, channel models.ChannelInfo) (*models.Advisory, error) {
	if !a.HasCredential() {
		return nil, a.fail(opAnalyze, KindCredentialMissing, 0, nil)
	}

	key := analyzeKeyPrefix + cache.NormalizeKey(text)
	if cached, ok := a.cache.Get(key); ok {
		a.metrics.RecordCacheLookup(true)
		a.logger.Debug("Using cached analysis", zap.Int("context_len", a.conversation.Len()))
		cached.Suggestions = slices.Clone(cached.Suggestions)
		return &cached, nil
	}
	a.metrics.RecordCacheLookup(false)

	content, err := a.complete(ctx, opAnalyze, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: analyzeSystemPrompt(channel)},
		{Role: openai.ChatMessageRoleUser, Content: analyzeUserPrompt(a.conversation.Format(), text)},
	})
	if err != nil {
		return nil, err
	}

	advisory, err := parseAdvisory(content)
	if err != nil {
		return nil, a.fail(opAnalyze, KindValidation, 0, err)
	}

	stored := advisory
	stored.Suggestions = slices.Clone(advisory.Suggestions)
	a.cache.Put(key, stored)
	return &advisory, nil
}

// ScoreOnly asks the model for a 0-100 tone score of text.
func (a *Advisor) ScoreOnly(ctx context.Context, text string) (*models.ToneScore, error) {
	if !a.HasCredential() {
		return nil, a.fail(opScore, KindCredentialMissing, 0, nil)
	}

	content, err := a.complete(ctx, opScore, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: scoreSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: scoreUserPrompt(text)},
	})
	if err != nil {
		return nil, err
	}

	score, err := parseToneScore(content)
	if err != nil {
		return nil, a.fail(opScore, KindValidation, 0, err)
	}
	return &score, nil
}

// Rewrite asks the model for an improved version of text and scores both
// versions. Any failing call fails the whole rewrite.
func (a *Advisor) Rewrite(ctx context.Context, text string) (*models.Rewrite, error) {
	if !a.HasCredential() {
		return nil, a.fail(opRewrite, KindCredentialMissing, 0, nil)
	}

	boosted, err := a.complete(ctx, opRewrite, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: rewriteSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: rewriteUserPrompt(text)},
	})
	if err != nil {
		return nil, err
	}
	if boosted == "" {
		return nil, a.fail(opRewrite, KindValidation, 0, errors.New("empty rewrite"))
	}

	before, err := a.ScoreOnly(ctx, text)
	if err != nil {
		return nil, err
	}
	after, err := a.ScoreOnly(ctx, boosted)
	if err != nil {
		return nil, err
	}

	return &models.Rewrite{
		Original:      text,
		Boosted:       boosted,
		OriginalScore: before.Score,
		BoostedScore:  after.Score,
		ScoreDelta:    after.Score - before.Score,
	}, nil
}

// complete runs one bounded chat completion and returns the trimmed reply.
func (a *Advisor) complete(ctx context.Context, op string, messages []openai.ChatCompletionMessage) (string, error) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return "", a.fail(op, KindCredentialMissing, 0, nil)
	}

	params := opParams[op]
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: params.temperature,
		MaxTokens:   params.maxTokens,
	}
	if params.jsonReply {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.CreateChatCompletion(callCtx, req)
	a.metrics.ObserveRemoteCall(op, time.Since(start))
	if err != nil {
		return "", a.classify(op, callCtx, err)
	}

	if len(resp.Choices) == 0 {
		return "", a.fail(op, KindValidation, 0, errors.New("response has no choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (a *Advisor) classify(op string, callCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return a.fail(op, KindTimeout, 0, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return a.fail(op, KindNetwork, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return a.fail(op, KindNetwork, reqErr.HTTPStatusCode, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return a.fail(op, KindValidation, 0, err)
	}

	return a.fail(op, KindNetwork, 0, err)
}

func (a *Advisor) fail(op string, kind Kind, status int, err error) error {
	a.metrics.RecordRemoteFailure(string(kind))
	if kind != KindCredentialMissing {
		a.logger.Debug("Remote call failed",
			zap.String("op", op),
			zap.String("kind", string(kind)),
			zap.Int("status", status),
			zap.Error(err))
	}
	return &Error{Kind: kind, Op: op, Status: status, Err: err}
}
