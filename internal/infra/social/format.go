package social

import (
	"strings"

	"github.com/lyyw205/stock-news/internal/domain/entity"
	"github.com/lyyw205/stock-news/internal/utils/text"
)

const truncationSuffix = "..."

// PostContent is the platform-independent input to formatting.
type PostContent struct {
	Title   string
	Summary string
	URL     string
	Ticker  string // 6-digit code, empty when unknown
}

// FormatPost renders content for one platform within its character limit.
// The article URL and the ticker hashtag are always preserved intact; when
// the limit bites, the summary is truncated first and the title only after
// the summary is fully gone. All counting is rune-based so Korean text is
// budgeted correctly.
func FormatPost(platform entity.Platform, content PostContent) string {
	spec := SpecFor(platform)

	var tail strings.Builder
	if content.URL != "" {
		tail.WriteString("\n\n")
		tail.WriteString(content.URL)
	}
	if content.Ticker != "" {
		tail.WriteString("\n#")
		tail.WriteString(content.Ticker)
	}

	prefix := "📈 "
	fixed := text.CountRunes(prefix) + text.CountRunes(tail.String())
	budget := spec.MaxLength - fixed
	if budget < 0 {
		budget = 0
	}

	title := content.Title
	summary := content.Summary
	titleLen := text.CountRunes(title)
	summaryLen := text.CountRunes(summary)

	// Separator between title and summary only exists while both survive.
	const sepLen = 2
	if summary != "" && titleLen+sepLen+summaryLen > budget {
		room := budget - titleLen - sepLen
		if room > text.CountRunes(truncationSuffix) {
			summary = text.TruncateRunes(summary, room, truncationSuffix)
		} else {
			summary = ""
		}
	}
	if summary == "" && titleLen > budget {
		title = text.TruncateRunes(title, budget, truncationSuffix)
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(title)
	if summary != "" {
		b.WriteString("\n\n")
		b.WriteString(summary)
	}
	b.WriteString(tail.String())
	return b.String()
}
