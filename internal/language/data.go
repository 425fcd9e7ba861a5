package language

import (
	"regexp"

	"github.com/dmulondo/sema-core/internal/domain"
)

// Curated keyword sets per language family: greetings, question words,
// response particles, business terms, action verbs and common function
// words. Kept as data so the lists can be extended without touching the
// detection logic.

var lugandaKeywords = newWordSet(
	// greetings
	"nkulamuse", "oli", "otya", "gyebale", "webale", "ssebo", "nnyabo", "mwasuze",
	// question words
	"ani", "ki", "ddi", "lwaki", "wa", "otyanno",
	// response particles
	"yee", "nedda", "kale", "naye", "bambi",
	// business terms
	"sente", "ssimu", "bbanka", "akawunti", "bbiri", "omuwendo",
	// action verbs
	"njagala", "nkola", "yamba", "nyamba", "tunda", "gula", "sasula",
	// common function words
	"nga", "era", "oba", "nti", "ku", "mu", "ne", "za", "zange", "wange", "kyange", "ziggweewo",
)

var swahiliKeywords = newWordSet(
	// greetings
	"jambo", "habari", "hujambo", "karibu", "asante", "shikamoo",
	// question words
	"nini", "nani", "wapi", "lini", "kwanini", "ngapi", "gani",
	// response particles
	"ndiyo", "hapana", "sawa", "pole", "tafadhali",
	// business terms
	"pesa", "simu", "benki", "akaunti", "bei", "malipo",
	// action verbs
	"nataka", "nahitaji", "nunua", "uza", "lipa", "saidia",
	// common function words
	"na", "ya", "kwa", "ni", "wa", "yangu", "wangu", "zangu", "sana", "kuhusu",
)

// englishWordPattern matches common English function and auxiliary words.
// English has no curated keyword set; its confidence is estimated from
// these matches plus sentence punctuation.
var englishWordPattern = regexp.MustCompile(`\b(the|a|an|is|are|was|were|be|been|i|you|he|she|it|we|they|my|your|his|her|our|their|and|or|but|not|do|does|did|have|has|had|can|could|will|would|should|need|want|help|please|with|to|of|in|on|for|at|from|this|that|what|when|where|how|why)\b`)

// localTerm is one glossary entry: a domain word mapped to its meaning
// and source language.
type localTerm struct {
	meaning  string
	language domain.Language
}

// glossaries holds the local-term glossary per language. Some spellings
// exist in both ("oda"); lookup order is the detector's glossary
// priority, so precedence is explicit configuration.
var glossaries = map[domain.Language]map[string]string{
	domain.LanguageLuganda: {
		"sente":    "money",
		"ssimu":    "phone",
		"bbanka":   "bank",
		"akawunti": "account",
		"oda":      "order",
		"yaka":     "prepaid electricity",
		"bundele":  "data bundle",
		"omuwendo": "price",
	},
	domain.LanguageSwahili: {
		"pesa":    "money",
		"simu":    "phone",
		"benki":   "bank",
		"akaunti": "account",
		"oda":     "order",
		"mtandao": "network",
		"bando":   "data bundle",
		"bei":     "price",
	},
}

// defaultGlossaryPriority resolves glossary collisions: the first
// language in the list that defines a token wins.
var defaultGlossaryPriority = []domain.Language{domain.LanguageLuganda, domain.LanguageSwahili}

type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) contains(w string) bool {
	_, ok := s[w]
	return ok
}
