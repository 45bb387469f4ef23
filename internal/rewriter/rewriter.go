// Package rewriter softens and clarifies a draft with fixed phrase tables.
//
// Rewrite is a single pass and is not idempotent: output of one pass can
// trigger further substitutions when fed back in (for example "We must do
// thing" becomes "We must do this", which a second pass turns into "We must
// work on this together").
package rewriter

import (
	"regexp"

	"github.com/xaenox/mgmt-boost/internal/models"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

func newRule(expr, replacement string) rule {
	return rule{
		pattern:     regexp.MustCompile(`(?i)\b(` + expr + `)\b`),
		replacement: replacement,
	}
}

var collaborativeRules = []rule{
	newRule(`you must|you need to|you should`, "let's"),
	newRule(`do this|complete this`, "work on this together"),
	newRule(`urgent|asap`, "when you have a chance"),
	newRule(`required|mandatory`, "would be helpful"),
}

var positiveRules = []rule{
	newRule(`bad|terrible|awful`, "challenging"),
	newRule(`hate|dislike`, "would prefer to avoid"),
	newRule(`worried|concerned`, "thinking about"),
	newRule(`angry|frustrated`, "focused on improving"),
}

var clarityRules = []rule{
	newRule(`thing|stuff`, "this"),
	newRule(`kinda|sorta`, "somewhat"),
	newRule(`etc`, "and more"),
	newRule(`imo|tbh`, "I think"),
}

// Rewrite applies the substitution pipeline to text. The directive and
// negativity passes run only when signal shows that imbalance; the clarity
// pass always runs. Each pass sees the previous pass's output.
func Rewrite(text string, signal models.ToneSignal) string {
	out := text
	if signal.Count(models.CategoryDirective) > signal.Count(models.CategoryCollaborative) {
		out = apply(out, collaborativeRules)
	}
	if signal.Count(models.CategoryNegative) > signal.Count(models.CategoryPositive) {
		out = apply(out, positiveRules)
	}
	return apply(out, clarityRules)
}

func apply(text string, rules []rule) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllLiteralString(text, r.replacement)
	}
	return text
}

// Improvements lists what a heuristic rewrite did, empty when nothing changed.
func Improvements(original, boosted string) []string {
	if original == boosted {
		return []string{}
	}
	return []string{
		"Enhanced tone for better team engagement",
		"Improved clarity and professionalism",
		"Made language more collaborative",
	}
}
