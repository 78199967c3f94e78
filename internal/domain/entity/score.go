package entity

import "time"

// VisualScores holds the six display sub-scores (1-10) shown on the
// radar chart in the dashboard.
type VisualScores struct {
	Impact     int // scale of effect on company earnings
	Urgency    int // how fast the price is expected to react (1=long term, 10=immediate)
	Certainty  int // information reliability (1=rumor, 10=disclosure)
	Durability int // how long the effect lasts (1=one-off, 10=structural)
	Attention  int // expected investor/media attention
	Relevance  int // relevance to current market themes
}

// HiddenScores holds the three sub-scores (1-10) that participate in the
// composite calculation but are never displayed.
type HiddenScores struct {
	SectorImpact          int // 1=single name, 10=whole sector
	InstitutionalInterest int // expected foreign/institutional interest
	Volatility            int // expected price swing (1=negligible, 10=violent)
}

// Sentiment expresses investor sentiment from -2 (very bearish) to +2 (very bullish).
type Sentiment int

const (
	SentimentVeryBearish Sentiment = -2
	SentimentBearish     Sentiment = -1
	SentimentNeutral     Sentiment = 0
	SentimentBullish     Sentiment = 1
	SentimentVeryBullish Sentiment = 2
)

// Score is the 1:1 scoring record owned by an Article once it has been scored.
// Total is always a deterministic function of the ten inputs; it is computed
// by the scoring engine and never mutated independently.
type Score struct {
	ArticleID int64
	Visual    VisualScores
	Hidden    HiddenScores
	Sentiment Sentiment
	Total     int // composite score, 1-100
	Reasoning string
	Fallback  bool    // true when the neutral default was substituted for AI output
	Summary   *string // generated summary text, nil until produced

	AutoPublished   bool
	AutoPublishedAt *time.Time

	SocialPosted    bool
	SocialPostedAt  *time.Time
	SocialPostCount int // monotonically increasing, never decremented

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Grade is the display band derived from the composite total.
type Grade string

const (
	GradeS Grade = "S" // core news
	GradeA Grade = "A" // important news
	GradeB Grade = "B" // regular news
	GradeC Grade = "C" // reference news
	GradeD Grade = "D" // low importance
)

// HasSummary reports whether a usable summary has been generated.
func (s *Score) HasSummary() bool {
	return s.Summary != nil && *s.Summary != ""
}
