package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lyyw205/stock-news/internal/domain/entity"
)

// analysisPayload is the JSON shape requested from the model.
type analysisPayload struct {
	Impact                int    `json:"impact"`
	Urgency               int    `json:"urgency"`
	Certainty             int    `json:"certainty"`
	Durability            int    `json:"durability"`
	Attention             int    `json:"attention"`
	Relevance             int    `json:"relevance"`
	SectorImpact          int    `json:"sector_impact"`
	InstitutionalInterest int    `json:"institutional_interest"`
	Volatility            int    `json:"volatility"`
	Sentiment             int    `json:"sentiment"`
	Reasoning             string `json:"reasoning"`
	Summary               string `json:"summary"`
}

// buildPrompt constructs the analysis prompt for a single article.
// The model is asked for a strict JSON object so the response can be decoded
// without scraping free-form text.
func buildPrompt(title, description string, summaryLimit int) string {
	var b strings.Builder
	b.WriteString("당신은 한국 주식시장 뉴스 분석가입니다. 아래 기사를 분석해 JSON으로만 답하세요.\n\n")
	b.WriteString("제목: " + title + "\n")
	if description != "" {
		b.WriteString("내용: " + description + "\n")
	}
	b.WriteString("\n각 항목은 1-10 정수, sentiment는 -2(매우 부정)부터 +2(매우 긍정) 정수입니다.\n")
	fmt.Fprintf(&b, "summary는 투자자 관점의 요약으로 %d자 이내로 작성하세요.\n\n", summaryLimit)
	b.WriteString(`{"impact": 0, "urgency": 0, "certainty": 0, "durability": 0, "attention": 0, "relevance": 0, ` +
		`"sector_impact": 0, "institutional_interest": 0, "volatility": 0, "sentiment": 0, ` +
		`"reasoning": "", "summary": ""}`)
	return b.String()
}

// parseAnalysis decodes and validates a model response. Responses wrapped in
// markdown code fences are unwrapped first. Any missing or out-of-range field
// fails the whole parse; the caller substitutes the neutral fallback rather
// than trusting a half-valid response.
func parseAnalysis(raw string) (*Analysis, error) {
	trimmed := stripCodeFence(raw)

	var payload analysisPayload
	dec := json.NewDecoder(strings.NewReader(trimmed))
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}

	subScores := map[string]int{
		"impact":                 payload.Impact,
		"urgency":                payload.Urgency,
		"certainty":              payload.Certainty,
		"durability":             payload.Durability,
		"attention":              payload.Attention,
		"relevance":              payload.Relevance,
		"sector_impact":          payload.SectorImpact,
		"institutional_interest": payload.InstitutionalInterest,
		"volatility":             payload.Volatility,
	}
	for name, v := range subScores {
		if v < 1 || v > 10 {
			return nil, fmt.Errorf("sub-score %s out of range: %d", name, v)
		}
	}
	if payload.Sentiment < -2 || payload.Sentiment > 2 {
		return nil, fmt.Errorf("sentiment out of range: %d", payload.Sentiment)
	}

	return &Analysis{
		Visual: entity.VisualScores{
			Impact:     payload.Impact,
			Urgency:    payload.Urgency,
			Certainty:  payload.Certainty,
			Durability: payload.Durability,
			Attention:  payload.Attention,
			Relevance:  payload.Relevance,
		},
		Hidden: entity.HiddenScores{
			SectorImpact:          payload.SectorImpact,
			InstitutionalInterest: payload.InstitutionalInterest,
			Volatility:            payload.Volatility,
		},
		Sentiment: entity.Sentiment(payload.Sentiment),
		Reasoning: payload.Reasoning,
		Summary:   payload.Summary,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
