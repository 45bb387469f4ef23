package tone

import "github.com/xaenox/mgmt-boost/internal/models"

// Keywords maps each category to the words and phrases counted for it.
type Keywords map[models.Category][]string

// DefaultKeywords is the built-in keyword table. A word may belong to more
// than one category ("thanks" is both positive and casual).
var DefaultKeywords = Keywords{
	models.CategoryPositive: {
		"great", "awesome", "excellent", "good", "nice",
		"thanks", "appreciate", "love", "excited", "happy",
	},
	models.CategoryNegative: {
		"bad", "terrible", "awful", "hate", "angry",
		"frustrated", "disappointed", "worried", "concerned", "upset",
	},
	models.CategoryDirective: {
		"must", "should", "need to", "have to", "required",
		"mandatory", "urgent", "immediately", "asap",
	},
	models.CategoryCollaborative: {
		"let's", "we could", "maybe we", "what if", "how about",
		"suggest", "propose", "consider",
	},
	models.CategoryFormal: {
		"therefore", "consequently", "furthermore", "moreover",
		"additionally", "in conclusion", "regarding",
	},
	models.CategoryCasual: {
		"hey", "hi", "cool", "awesome", "yeah",
		"sure", "no problem", "got it", "thanks",
	},
}
