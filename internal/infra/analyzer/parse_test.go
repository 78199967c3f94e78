package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

const validResponse = `{
	"impact": 8, "urgency": 7, "certainty": 9, "durability": 6,
	"attention": 8, "relevance": 7,
	"sector_impact": 5, "institutional_interest": 6, "volatility": 4,
	"sentiment": 1,
	"reasoning": "분기 실적이 시장 예상을 상회",
	"summary": "삼성전자 4분기 영업이익 6.5조원으로 예상치 상회"
}`

func TestParseAnalysis(t *testing.T) {
	got, err := parseAnalysis(validResponse)
	if err != nil {
		t.Fatalf("parseAnalysis err=%v", err)
	}
	if got.Visual.Impact != 8 || got.Visual.Relevance != 7 {
		t.Errorf("visual scores = %+v", got.Visual)
	}
	if got.Hidden.Volatility != 4 {
		t.Errorf("hidden scores = %+v", got.Hidden)
	}
	if got.Sentiment != entity.SentimentBullish {
		t.Errorf("sentiment = %d", got.Sentiment)
	}
	if got.Summary == "" || got.Reasoning == "" {
		t.Error("summary and reasoning must survive the parse")
	}
}

func TestParseAnalysis_CodeFence(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	got, err := parseAnalysis(fenced)
	if err != nil {
		t.Fatalf("parseAnalysis err=%v", err)
	}
	if got.Visual.Impact != 8 {
		t.Errorf("impact = %d", got.Visual.Impact)
	}
}

func TestParseAnalysis_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "the article looks positive"},
		{name: "sub-score above range", raw: strings.Replace(validResponse, `"impact": 8`, `"impact": 11`, 1)},
		{name: "sub-score below range", raw: strings.Replace(validResponse, `"certainty": 9`, `"certainty": 0`, 1)},
		{name: "sentiment out of range", raw: strings.Replace(validResponse, `"sentiment": 1`, `"sentiment": 3`, 1)},
		{name: "missing field is zero and rejected", raw: strings.Replace(validResponse, `"impact": 8,`, ``, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseAnalysis(tt.raw); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestNoopAnalyze(t *testing.T) {
	got, err := NewNoop().Analyze(context.Background(), "제목", "내용")
	if err != nil {
		t.Fatalf("Analyze err=%v", err)
	}
	if got.Visual.Impact != 5 || got.Hidden.Volatility != 5 {
		t.Errorf("noop must return mid-scale scores: %+v %+v", got.Visual, got.Hidden)
	}
	if got.Sentiment != entity.SentimentNeutral {
		t.Errorf("sentiment = %d, want neutral", got.Sentiment)
	}
}
