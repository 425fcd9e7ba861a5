// Package language classifies raw customer text into a primary language
// (English, Luganda, Swahili or mixed) and extracts local-term glossary
// hits used to route and phrase replies.
package language

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dmulondo/sema-core/internal/domain"
)

const (
	// englishFloor gates English as a candidate language.
	englishFloor = 0.3
	// localTermBoost is added to overall confidence per glossary hit.
	localTermBoost = 0.2
	// mixedGap is the top-two confidence gap below which the result is mixed.
	mixedGap = 0.3
	// defaultConfidence is used when no language is recognizable.
	defaultConfidence = 0.5
)

// LanguageScore is the per-language evidence collected from a message.
type LanguageScore struct {
	Language   domain.Language `json:"language"`
	Confidence float64         `json:"confidence"`
	Words      []string        `json:"words"`
}

// LocalTerm is a glossary hit found in the message.
type LocalTerm struct {
	Term     string          `json:"term"`
	Meaning  string          `json:"meaning"`
	Language domain.Language `json:"language"`
}

// Detection is the full result of analyzing one message.
type Detection struct {
	PrimaryLanguage   domain.Language `json:"primaryLanguage"`
	Confidence        float64         `json:"confidence"`
	DetectedLanguages []LanguageScore `json:"detectedLanguages"`
	LocalTerms        []LocalTerm     `json:"localTerms"`
	SuggestedResponse domain.Language `json:"suggestedResponse"`
}

// Detector is a pure, deterministic classifier over its keyword tables.
// It performs no I/O and is safe for concurrent use.
type Detector struct {
	glossaryPriority []domain.Language
}

// NewDetector builds a detector. glossaryPriority resolves glossary
// collisions (the same spelling mapped by two languages); pass nil for
// the default Luganda-before-Swahili order.
func NewDetector(glossaryPriority []domain.Language) *Detector {
	if len(glossaryPriority) == 0 {
		glossaryPriority = defaultGlossaryPriority
	}
	return &Detector{glossaryPriority: glossaryPriority}
}

// Detect classifies text. Empty or whitespace-only input yields the
// default English result at 0.5 confidence with no local terms.
func (d *Detector) Detect(text string) Detection {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Detection{
			PrimaryLanguage:   domain.LanguageEnglish,
			Confidence:        defaultConfidence,
			SuggestedResponse: domain.LanguageEnglish,
		}
	}

	var candidates []LanguageScore
	if score, ok := scoreKeywords(domain.LanguageLuganda, lugandaKeywords, tokens); ok {
		candidates = append(candidates, score)
	}
	if score, ok := scoreKeywords(domain.LanguageSwahili, swahiliKeywords, tokens); ok {
		candidates = append(candidates, score)
	}
	if score, ok := scoreEnglish(text, tokens); ok {
		candidates = append(candidates, score)
	}

	terms := d.lookupTerms(tokens)

	primary, confidence := pickPrimary(candidates)
	confidence = clamp(confidence + localTermBoost*float64(len(terms)))

	// Skewed glossary evidence overrides the statistical pick, even a
	// mixed one.
	if lang, ok := dominantTermLanguage(terms); ok {
		primary = lang
	}

	suggested := primary
	if suggested == domain.LanguageMixed {
		suggested = domain.LanguageEnglish
	}

	return Detection{
		PrimaryLanguage:   primary,
		Confidence:        confidence,
		DetectedLanguages: candidates,
		LocalTerms:        terms,
		SuggestedResponse: suggested,
	}
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// scoreKeywords counts token overlap with a curated keyword set. The
// confidence is min(matches/tokens*2, 1).
func scoreKeywords(lang domain.Language, set wordSet, tokens []string) (LanguageScore, bool) {
	var words []string
	for _, tok := range tokens {
		if set.contains(tok) {
			words = append(words, tok)
		}
	}
	if len(words) == 0 {
		return LanguageScore{}, false
	}
	conf := clamp(float64(len(words)) / float64(len(tokens)) * 2)
	return LanguageScore{Language: lang, Confidence: conf, Words: words}, true
}

// scoreEnglish estimates English confidence from function-word matches
// and sentence punctuation, normalized by token count. English only
// becomes a candidate above the floor.
func scoreEnglish(text string, tokens []string) (LanguageScore, bool) {
	lower := strings.ToLower(text)
	words := englishWordPattern.FindAllString(lower, -1)
	conf := float64(len(words)) / float64(len(tokens))
	if strings.ContainsAny(text, ".!?,") {
		conf += 0.1
	}
	conf = clamp(conf)
	if conf < englishFloor {
		return LanguageScore{}, false
	}
	return LanguageScore{Language: domain.LanguageEnglish, Confidence: conf, Words: words}, true
}

// lookupTerms scans tokens against the glossary. Languages are consulted
// in the detector's priority order so a colliding spelling always
// resolves to the same language.
func (d *Detector) lookupTerms(tokens []string) []LocalTerm {
	var terms []LocalTerm
	for _, tok := range tokens {
		for _, lang := range d.glossaryPriority {
			if meaning, ok := glossaries[lang][tok]; ok {
				terms = append(terms, LocalTerm{Term: tok, Meaning: meaning, Language: lang})
				break
			}
		}
	}
	return terms
}

// pickPrimary selects the primary language from the scored candidates.
func pickPrimary(candidates []LanguageScore) (domain.Language, float64) {
	switch len(candidates) {
	case 0:
		return domain.LanguageEnglish, defaultConfidence
	case 1:
		return candidates[0].Language, candidates[0].Confidence
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if candidates[0].Confidence-candidates[1].Confidence > mixedGap {
		return candidates[0].Language, candidates[0].Confidence
	}
	return domain.LanguageMixed, candidates[0].Confidence
}

// dominantTermLanguage reports the glossary language with strictly more
// hits than the other, if any.
func dominantTermLanguage(terms []LocalTerm) (domain.Language, bool) {
	var lg, sw int
	for _, t := range terms {
		switch t.Language {
		case domain.LanguageLuganda:
			lg++
		case domain.LanguageSwahili:
			sw++
		}
	}
	if lg > sw {
		return domain.LanguageLuganda, true
	}
	if sw > lg {
		return domain.LanguageSwahili, true
	}
	return "", false
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
