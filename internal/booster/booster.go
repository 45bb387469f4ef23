// Package booster decides, per draft, whether the remote advisor or the local
// heuristics produce the boosted message. It is the only place where remote
// failures turn into a fallback.
package booster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/advisor"
	"github.com/xaenox/mgmt-boost/internal/metrics"
	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/rewriter"
	"github.com/xaenox/mgmt-boost/internal/tone"
)

// RemoteAdvisor is the part of *advisor.Advisor the booster needs.
type RemoteAdvisor interface {
	HasCredential() bool
	AddToContext(text string, role models.SpeakerRole)
	Analyze(ctx context.Context, text string, channel models.ChannelInfo) (*models.Advisory, error)
	ScoreOnly(ctx context.Context, text string) (*models.ToneScore, error)
}

// Scorer produces the heuristic tone signal.
type Scorer interface {
	Score(text string) models.ToneSignal
}

type scorerFunc func(string) models.ToneSignal

func (f scorerFunc) Score(text string) models.ToneSignal { return f(text) }

type Booster struct {
	advisor RemoteAdvisor
	scorer  Scorer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

type Option func(*Booster)

// WithScorer swaps the heuristic scorer.
func WithScorer(s Scorer) Option {
	return func(b *Booster) {
		b.scorer = s
	}
}

// New builds a Booster. A nil advisor means heuristics only.
func New(adv RemoteAdvisor, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Booster {
	b := &Booster{
		advisor: adv,
		scorer:  scorerFunc(tone.Score),
		metrics: m,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Boost improves text. It always returns a result; on any unrecoverable
// problem the original text comes back unchanged.
func (b *Booster) Boost(ctx context.Context, text string, channel models.ChannelInfo) models.BoostResult {
	result := b.boost(ctx, text, channel)
	b.metrics.RecordBoost(string(result.Source))
	return result
}

func (b *Booster) boost(ctx context.Context, text string, channel models.ChannelInfo) models.BoostResult {
	if b.advisor != nil && b.advisor.HasCredential() {
		b.advisor.AddToContext(text, models.RoleUser)

		result, err := b.remote(ctx, text, channel)
		if err == nil {
			return result
		}
		b.logger.Warn("Remote analysis failed, using heuristics",
			zap.String("kind", string(advisor.KindOf(err))),
			zap.Error(err))
	}

	if result, ok := b.heuristic(text); ok {
		return result
	}
	return identity(text)
}

func (b *Booster) remote(ctx context.Context, text string, channel models.ChannelInfo) (result models.BoostResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = models.BoostResult{}, fmt.Errorf("remote advisor panicked: %v", r)
		}
	}()

	advisory, err := b.advisor.Analyze(ctx, text, channel)
	if err != nil {
		return models.BoostResult{}, err
	}
	if advisory == nil {
		return models.BoostResult{}, &advisor.Error{Kind: advisor.KindValidation, Op: "analyze", Err: errors.New("empty advisory")}
	}

	boosted := text
	if candidate := strings.TrimSpace(advisory.BoostedMessage); candidate != "" && candidate != text {
		boosted = candidate
	}

	if advisory.ImmediateAction != "" {
		b.advisor.AddToContext(advisory.ImmediateAction, models.RoleAssistant)
	}

	result = models.BoostResult{
		OriginalText:    text,
		BoostedText:     boosted,
		Sentiment:       advisory.ToneAnalysis.OverallSentiment,
		Advisories:      suggestionMessages(advisory.Suggestions),
		Improvements:    []string{},
		ImmediateAction: advisory.ImmediateAction,
		Source:          models.SourceRemote,
	}

	// The advisory carries no number, so the boosted text is scored with a
	// second call. A failed score leaves the result unscored.
	score, scoreErr := b.advisor.ScoreOnly(ctx, boosted)
	if scoreErr != nil || score == nil {
		b.logger.Debug("Remote score unavailable", zap.Error(scoreErr))
		return result, nil
	}
	result.Score = &score.Score
	result.ScoreLabel = tone.Describe(score.Score)
	if len(score.Improvements) > 0 {
		result.Improvements = score.Improvements
	}
	return result, nil
}

func suggestionMessages(suggestions []models.Suggestion) []string {
	ordered := make([]models.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Priority.Valid() && strings.TrimSpace(s.Message) != "" {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority.Rank() < ordered[j].Priority.Rank()
	})

	out := make([]string, len(ordered))
	for i, s := range ordered {
		out[i] = s.Message
	}
	return out
}

var insightPriority = map[models.InsightKind]models.Priority{
	models.InsightWarning: models.PriorityHigh,
	models.InsightInfo:    models.PriorityMedium,
	models.InsightSuccess: models.PriorityLow,
}

func (b *Booster) heuristic(text string) (result models.BoostResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Heuristic boost failed", zap.Any("panic", r))
			ok = false
		}
	}()

	signal := b.scorer.Score(text)
	boosted := rewriter.Rewrite(text, signal)

	insights := make([]models.Insight, len(signal.Insights))
	copy(insights, signal.Insights)
	sort.SliceStable(insights, func(i, j int) bool {
		return insightPriority[insights[i].Kind].Rank() < insightPriority[insights[j].Kind].Rank()
	})
	advisories := make([]string, len(insights))
	for i, in := range insights {
		advisories[i] = fmt.Sprintf("%s (%s)", in.Message, in.Suggestion)
	}

	score := signal.CompositeScore
	return models.BoostResult{
		OriginalText: text,
		BoostedText:  boosted,
		Score:        &score,
		ScoreLabel:   tone.Describe(score),
		Advisories:   advisories,
		Improvements: rewriter.Improvements(text, boosted),
		Source:       models.SourceHeuristic,
	}, true
}

func identity(text string) models.BoostResult {
	return models.BoostResult{
		OriginalText: text,
		BoostedText:  text,
		Advisories:   []string{},
		Improvements: []string{},
		Source:       models.SourceIdentity,
	}
}
