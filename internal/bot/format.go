package bot

import (
	"fmt"
	"strings"

	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/tone"
)

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// escapeCode escapes text placed inside a MarkdownV2 pre block.
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}

func formatBoostResult(r models.BoostResult) string {
	var sb strings.Builder

	if r.Changed() {
		sb.WriteString("*Boosted message:*\n")
	} else {
		sb.WriteString("*Your message looks good as is:*\n")
	}
	sb.WriteString("```\n" + escapeCode(r.BoostedText) + "\n```\n")

	if r.Score != nil {
		fmt.Fprintf(&sb, "\n*Score:* %d/100", *r.Score)
		if r.ScoreLabel != "" {
			sb.WriteString(" " + escapeMarkdown("("+r.ScoreLabel+")"))
		}
		sb.WriteString("\n")
	}
	if r.Sentiment != "" {
		sb.WriteString("*Sentiment:* " + escapeMarkdown(r.Sentiment) + "\n")
	}

	if len(r.Advisories) > 0 {
		sb.WriteString("\n*Suggestions:*\n")
		for _, a := range r.Advisories {
			sb.WriteString("• " + escapeMarkdown(a) + "\n")
		}
	}
	if r.ImmediateAction != "" {
		sb.WriteString("\n*Next step:* " + escapeMarkdown(r.ImmediateAction) + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatToneSignal(s models.ToneSignal) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Score:* %d/100 %s\n", s.CompositeScore, escapeMarkdown("("+tone.Describe(s.CompositeScore)+")"))
	sb.WriteString("*Primary tone:* " + escapeMarkdown(string(s.PrimaryCategory)) + "\n")

	var counts []string
	for _, c := range models.Categories {
		if n := s.Count(c); n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", c, n))
		}
	}
	if len(counts) > 0 {
		sb.WriteString("*Keywords:* " + escapeMarkdown(strings.Join(counts, ", ")) + "\n")
	}

	for _, in := range s.Insights {
		sb.WriteString("\n" + escapeMarkdown(in.Message+" ("+in.Suggestion+")"))
	}

	return strings.TrimRight(sb.String(), "\n")
}
