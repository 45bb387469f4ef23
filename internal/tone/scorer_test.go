package tone

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaenox/mgmt-boost/internal/models"
)

func TestScoreCounts(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    map[models.Category]int
		primary models.Category
		score   int
	}{
		{
			name:    "directive only",
			text:    "You must finish this ASAP",
			want:    map[models.Category]int{models.CategoryDirective: 2},
			primary: models.CategoryDirective,
			score:   65,
		},
		{
			name:    "positive only",
			text:    "Thanks team, great work!",
			want:    map[models.Category]int{models.CategoryPositive: 2, models.CategoryCasual: 1},
			primary: models.CategoryPositive,
			score:   75,
		},
		{
			name:    "positive and collaborative",
			text:    "Thanks team, let's do great work",
			want:    map[models.Category]int{models.CategoryPositive: 2, models.CategoryCollaborative: 1, models.CategoryCasual: 1},
			primary: models.CategoryPositive,
			score:   80,
		},
		{
			name:    "empty",
			text:    "",
			want:    map[models.Category]int{},
			primary: models.CategoryPositive,
			score:   75,
		},
		{
			name:    "substrings do not count",
			text:    "goodness, mustard and hiking",
			want:    map[models.Category]int{},
			primary: models.CategoryPositive,
			score:   75,
		},
		{
			name:    "case insensitive",
			text:    "GREAT Great great",
			want:    map[models.Category]int{models.CategoryPositive: 3},
			primary: models.CategoryPositive,
			score:   75,
		},
		{
			name:    "tie keeps canonical order",
			text:    "great but terrible",
			want:    map[models.Category]int{models.CategoryPositive: 1, models.CategoryNegative: 1},
			primary: models.CategoryPositive,
			score:   75,
		},
		{
			name:    "shared keyword counts in both categories",
			text:    "hey thanks",
			want:    map[models.Category]int{models.CategoryPositive: 1, models.CategoryCasual: 2},
			primary: models.CategoryCasual,
			score:   75,
		},
		{
			name:    "phrases",
			text:    "What if we could try? How about Friday. In conclusion, we need to ship.",
			want:    map[models.Category]int{models.CategoryCollaborative: 3, models.CategoryFormal: 1, models.CategoryDirective: 1},
			primary: models.CategoryCollaborative,
			score:   85,
		},
		{
			name:    "negative heavy clamps positivity",
			text:    "bad terrible awful hate angry frustrated disappointed worried concerned upset bad",
			want:    map[models.Category]int{models.CategoryNegative: 11},
			primary: models.CategoryNegative,
			score:   25,
		},
		{
			name:    "directive heavy clamps collaboration",
			text:    "must must must must must must",
			want:    map[models.Category]int{models.CategoryDirective: 6},
			primary: models.CategoryDirective,
			score:   50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.text)
			for _, category := range models.Categories {
				if got.Count(category) != tt.want[category] {
					t.Errorf("Score(%q) %s = %d, want %d", tt.text, category, got.Count(category), tt.want[category])
				}
			}
			if got.PrimaryCategory != tt.primary {
				t.Errorf("Score(%q) primary = %s, want %s", tt.text, got.PrimaryCategory, tt.primary)
			}
			if got.CompositeScore != tt.score {
				t.Errorf("Score(%q) composite = %d, want %d", tt.text, got.CompositeScore, tt.score)
			}
		})
	}
}

func TestScoreInsights(t *testing.T) {
	kinds := func(s models.ToneSignal) []string {
		out := []string{}
		for _, in := range s.Insights {
			out = append(out, string(in.Kind)+":"+in.Message)
		}
		return out
	}

	t.Run("directive warning", func(t *testing.T) {
		require.Equal(t, []string{"warning:Consider using more collaborative language"}, kinds(Score("You must finish this ASAP")))
	})

	t.Run("no success without collaborative keyword", func(t *testing.T) {
		require.Empty(t, Score("Thanks team, great work!").Insights)
	})

	t.Run("success with collaborative keyword", func(t *testing.T) {
		require.Equal(t, []string{"success:Great collaborative tone!"}, kinds(Score("Thanks team, let's do great work")))
	})

	t.Run("negative warning", func(t *testing.T) {
		require.Equal(t, []string{"warning:Message may come across as negative"}, kinds(Score("I am worried and upset")))
	})

	t.Run("length counts characters", func(t *testing.T) {
		require.Empty(t, Score(strings.Repeat("é", 200)).Insights)
		require.Equal(t, []string{"info:Message is quite long"}, kinds(Score(strings.Repeat("é", 201))))
	})

	t.Run("fixed order", func(t *testing.T) {
		text := "You must fix this, it is terrible. " + strings.Repeat("x", 200)
		require.Equal(t, []string{
			"warning:Consider using more collaborative language",
			"warning:Message may come across as negative",
			"info:Message is quite long",
		}, kinds(Score(text)))
	})
}

func TestScoreDeterministic(t *testing.T) {
	texts := []string{"", "You must finish this ASAP", "hey thanks, let's sync regarding the roadmap"}
	for _, text := range texts {
		require.Equal(t, Score(text), Score(text))
	}
}

func TestCompositeBounds(t *testing.T) {
	for p := 0; p < 25; p += 3 {
		for n := 0; n < 25; n += 3 {
			for c := 0; c < 25; c += 4 {
				for d := 0; d < 25; d += 4 {
					got := Composite(map[models.Category]int{
						models.CategoryPositive:      p,
						models.CategoryNegative:      n,
						models.CategoryCollaborative: c,
						models.CategoryDirective:     d,
					})
					if got < 0 || got > 100 {
						t.Fatalf("Composite(p=%d n=%d c=%d d=%d) = %d out of range", p, n, c, d, got)
					}
				}
			}
		}
	}
}

func TestNewScorerRejectsBadTables(t *testing.T) {
	_, err := NewScorer(Keywords{models.CategoryPositive: {"good"}})
	require.Error(t, err)

	bad := Keywords{}
	for _, c := range models.Categories {
		bad[c] = []string{"word"}
	}
	bad[models.CategoryFormal] = []string{"  "}
	_, err = NewScorer(bad)
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Excellent tone"},
		{80, "Excellent tone"},
		{79, "Good tone"},
		{60, "Good tone"},
		{59, "Neutral tone"},
		{40, "Neutral tone"},
		{39, "Needs improvement"},
		{20, "Needs improvement"},
		{19, "Requires attention"},
		{0, "Requires attention"},
	}
	for _, tt := range tests {
		if got := Describe(tt.score); got != tt.want {
			t.Errorf("Describe(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
