// Package analyzer provides AI-powered article analysis implementations.
// It includes adapters for Claude (Anthropic) and OpenAI APIs with reliability
// patterns. An analysis produces the ten sub-scores, an investor sentiment,
// a short reasoning and a summary; the composite total is computed downstream
// by the scoring engine, never by the model.
package analyzer

import (
	"context"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// Analysis is the structured output of one model call for one article.
type Analysis struct {
	Visual    entity.VisualScores
	Hidden    entity.HiddenScores
	Sentiment entity.Sentiment
	Reasoning string
	Summary   string
}

// Analyzer produces a structured analysis of a news article.
// Implementations wrap external AI APIs; callers are expected to substitute
// a neutral fallback when Analyze fails, so the pipeline never stalls on a
// model outage.
type Analyzer interface {
	Analyze(ctx context.Context, title, description string) (*Analysis, error)
}
