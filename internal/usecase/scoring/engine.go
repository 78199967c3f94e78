// Package scoring computes the composite importance score of an article and
// drives the auto-publish decision. The composite is a pure function of the
// ten model outputs; AI failures degrade to a neutral fallback so scoring
// never blocks the pipeline.
package scoring

import (
	"math"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// Composite weights. The six visual scores carry 60% of the weight, the
// three hidden scores 30%, sentiment the remaining 10%.
const (
	weightImpact     = 0.15
	weightUrgency    = 0.10
	weightCertainty  = 0.12
	weightDurability = 0.08
	weightAttention  = 0.08
	weightRelevance  = 0.07

	weightSectorImpact          = 0.10
	weightInstitutionalInterest = 0.12
	weightVolatility            = 0.08

	weightSentiment = 0.10
)

// AutoPublishThreshold is the composite total at or above which an article
// is dispatched to social platforms without human review.
const AutoPublishThreshold = 80

// Grade boundaries on the composite total.
const (
	gradeSMin = 80
	gradeAMin = 65
	gradeBMin = 50
	gradeCMin = 35
)

// clampSubScore forces a sub-score into the 1-10 scale. Model outputs are
// validated upstream; this is the engine's own guarantee of its input range.
func clampSubScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// clampSentiment forces sentiment into the -2..+2 scale.
func clampSentiment(s entity.Sentiment) entity.Sentiment {
	if s < entity.SentimentVeryBearish {
		return entity.SentimentVeryBearish
	}
	if s > entity.SentimentVeryBullish {
		return entity.SentimentVeryBullish
	}
	return s
}

// ComputeTotal derives the 1-100 composite from the ten inputs.
// Each sub-score contributes its weighted value on the 1-10 scale; sentiment
// is shifted from -2..+2 onto 0..10 before weighting. The weighted sum is
// scaled to 100, rounded half away from zero and clamped to [1, 100].
func ComputeTotal(visual entity.VisualScores, hidden entity.HiddenScores, sentiment entity.Sentiment) int {
	weighted := float64(clampSubScore(visual.Impact))*weightImpact +
		float64(clampSubScore(visual.Urgency))*weightUrgency +
		float64(clampSubScore(visual.Certainty))*weightCertainty +
		float64(clampSubScore(visual.Durability))*weightDurability +
		float64(clampSubScore(visual.Attention))*weightAttention +
		float64(clampSubScore(visual.Relevance))*weightRelevance +
		float64(clampSubScore(hidden.SectorImpact))*weightSectorImpact +
		float64(clampSubScore(hidden.InstitutionalInterest))*weightInstitutionalInterest +
		float64(clampSubScore(hidden.Volatility))*weightVolatility

	sentimentScaled := (float64(clampSentiment(sentiment)) + 2) / 4 * 10
	weighted += sentimentScaled * weightSentiment

	total := int(math.Round(weighted * 10))
	if total < 1 {
		total = 1
	}
	if total > 100 {
		total = 100
	}
	return total
}

// GradeOf maps a composite total to its display band.
func GradeOf(total int) entity.Grade {
	switch {
	case total >= gradeSMin:
		return entity.GradeS
	case total >= gradeAMin:
		return entity.GradeA
	case total >= gradeBMin:
		return entity.GradeB
	case total >= gradeCMin:
		return entity.GradeC
	default:
		return entity.GradeD
	}
}

// ShouldAutoPublish reports whether a score qualifies for unattended social
// dispatch. The threshold is inclusive; fallback scores never qualify because
// a neutral default says nothing about the article.
func ShouldAutoPublish(score *entity.Score) bool {
	return !score.Fallback && score.Total >= AutoPublishThreshold
}

// FallbackScore builds the neutral score substituted when analysis fails.
// All sub-scores sit mid-scale with neutral sentiment, which lands the
// composite at exactly 50.
func FallbackScore(articleID int64) *entity.Score {
	visual := entity.VisualScores{
		Impact: 5, Urgency: 5, Certainty: 5,
		Durability: 5, Attention: 5, Relevance: 5,
	}
	hidden := entity.HiddenScores{
		SectorImpact: 5, InstitutionalInterest: 5, Volatility: 5,
	}
	return &entity.Score{
		ArticleID: articleID,
		Visual:    visual,
		Hidden:    hidden,
		Sentiment: entity.SentimentNeutral,
		Total:     ComputeTotal(visual, hidden, entity.SentimentNeutral),
		Reasoning: "AI 분석 실패로 기본값 적용",
		Fallback:  true,
	}
}
