package content

import (
	"strings"
	"unicode"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

// Classifier maps free text to a content type
type Classifier interface {
	Classify(text string) models.ContentType
}

var actionKeywords = []string{
	"action", "combat", "chase", "chases", "chasing", "fight", "fighting",
	"battle", "explosion", "explodes", "pursuit", "attack", "attacks",
	"sprint", "sprints", "crash", "gunfire", "duel", "brawl",
	"car chase", "sword fight",
}

var landscapeKeywords = []string{
	"landscape", "panorama", "panoramic", "vista", "scenery", "horizon",
	"skyline", "aerial", "mountains", "valley", "establishing",
	"wide shot", "establishing shot", "sweeping view",
}

// KeywordClassifier classifies shot descriptions via keyword heuristics. No model call.
// Action outranks landscape; anything else is dialogue.
type KeywordClassifier struct {
	action    keywordSet
	landscape keywordSet
}

// NewKeywordClassifier creates a classifier with the built-in keyword tables
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		action:    newKeywordSet(actionKeywords),
		landscape: newKeywordSet(landscapeKeywords),
	}
}

// Classify returns action, landscape or dialogue
func (c *KeywordClassifier) Classify(text string) models.ContentType {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return models.ContentDialogue
	}
	words := tokenize(lower)

	if c.action.matches(lower, words) {
		return models.ContentAction
	}
	if c.landscape.matches(lower, words) {
		return models.ContentLandscape
	}
	return models.ContentDialogue
}

// keywordSet matches single words against tokens and phrases as substrings,
// so "reaction" never counts as "action".
type keywordSet struct {
	words   map[string]struct{}
	phrases []string
}

func newKeywordSet(keywords []string) keywordSet {
	ks := keywordSet{words: make(map[string]struct{})}
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			ks.phrases = append(ks.phrases, kw)
			continue
		}
		ks.words[kw] = struct{}{}
	}
	return ks
}

func (ks keywordSet) matches(lower string, words []string) bool {
	for _, w := range words {
		if _, ok := ks.words[w]; ok {
			return true
		}
	}
	for _, p := range ks.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
