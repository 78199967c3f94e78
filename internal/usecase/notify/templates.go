package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/lyyw205/stock-news/internal/repository"
)

// pushBodyLimit keeps push notification bodies inside the visible area of a
// lock-screen banner.
const pushBodyLimit = 120

// Message is a rendered notification ready for delivery on any channel.
type Message struct {
	Subject  string
	HTMLBody string
	TextBody string
	PushBody string
}

// renderSingle renders a notification about one scored article.
func renderSingle(item repository.ScoredArticle, tickers []string) Message {
	article := item.Article
	score := item.Score

	subject := fmt.Sprintf("[%s] %s", strings.Join(tickers, ", "), article.Title)

	summary := ""
	if score.HasSummary() {
		summary = *score.Summary
	}

	var htmlBody strings.Builder
	htmlBody.WriteString("<h2>" + html.EscapeString(article.Title) + "</h2>\n")
	htmlBody.WriteString(fmt.Sprintf("<p><strong>중요도 %d점</strong></p>\n", score.Total))
	if summary != "" {
		htmlBody.WriteString("<p>" + html.EscapeString(summary) + "</p>\n")
	}
	htmlBody.WriteString(fmt.Sprintf("<p><a href=%q>기사 원문 보기</a></p>\n", article.URL))

	var textBody strings.Builder
	textBody.WriteString(article.Title + "\n")
	textBody.WriteString(fmt.Sprintf("중요도 %d점\n", score.Total))
	if summary != "" {
		textBody.WriteString("\n" + summary + "\n")
	}
	textBody.WriteString("\n" + article.URL + "\n")

	pushBody := summary
	if pushBody == "" {
		pushBody = article.Title
	}
	if len([]rune(pushBody)) > pushBodyLimit {
		pushBody = string([]rune(pushBody)[:pushBodyLimit-1]) + "…"
	}

	return Message{
		Subject:  subject,
		HTMLBody: htmlBody.String(),
		TextBody: textBody.String(),
		PushBody: pushBody,
	}
}

// renderDigest renders one notification covering several articles for the
// same subscriber, so a busy news day produces one email instead of many.
func renderDigest(items []repository.ScoredArticle) Message {
	subject := fmt.Sprintf("관심 종목 뉴스 %d건", len(items))

	var htmlBody strings.Builder
	htmlBody.WriteString(fmt.Sprintf("<h2>관심 종목 뉴스 %d건</h2>\n<ul>\n", len(items)))
	var textBody strings.Builder
	textBody.WriteString(subject + "\n\n")

	for _, item := range items {
		htmlBody.WriteString(fmt.Sprintf("<li><a href=%q>%s</a> (%d점)</li>\n",
			item.Article.URL, html.EscapeString(item.Article.Title), item.Score.Total))
		textBody.WriteString(fmt.Sprintf("- %s (%d점)\n  %s\n", item.Article.Title, item.Score.Total, item.Article.URL))
	}
	htmlBody.WriteString("</ul>\n")

	pushBody := fmt.Sprintf("%s 외 %d건의 새 뉴스가 있습니다.", items[0].Article.Title, len(items)-1)
	if len([]rune(pushBody)) > pushBodyLimit {
		pushBody = string([]rune(pushBody)[:pushBodyLimit-1]) + "…"
	}

	return Message{
		Subject:  subject,
		HTMLBody: htmlBody.String(),
		TextBody: textBody.String(),
		PushBody: pushBody,
	}
}

// matchedTickers returns the article tickers the subscriber actually follows,
// used to label the subject line.
func matchedTickers(items []repository.ScoredArticle, subscribed []string) []string {
	subscribedSet := make(map[string]struct{}, len(subscribed))
	for _, t := range subscribed {
		subscribedSet[t] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, item := range items {
		t := item.Article.TickerOrEmpty()
		if t == "" {
			continue
		}
		if _, ok := subscribedSet[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
