package analyzer

import (
	"context"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// Noop is an analyzer that returns a neutral analysis without calling any
// external API. It is used when no API key is configured and in tests.
type Noop struct{}

// NewNoop creates a no-op analyzer.
func NewNoop() *Noop {
	return &Noop{}
}

// Analyze returns a neutral mid-scale analysis. The values match the scoring
// fallback so a no-op deployment behaves like a permanent AI outage: every
// article lands on the neutral composite and nothing auto-publishes.
func (n *Noop) Analyze(ctx context.Context, title, description string) (*Analysis, error) {
	return &Analysis{
		Visual: entity.VisualScores{
			Impact: 5, Urgency: 5, Certainty: 5,
			Durability: 5, Attention: 5, Relevance: 5,
		},
		Hidden: entity.HiddenScores{
			SectorImpact: 5, InstitutionalInterest: 5, Volatility: 5,
		},
		Sentiment: entity.SentimentNeutral,
		Reasoning: "분석 미수행 (기본값)",
		Summary:   "",
	}, nil
}
