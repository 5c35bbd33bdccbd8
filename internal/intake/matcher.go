package intake

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MatchStatus is the outcome of matching one line against the catalog.
type MatchStatus int

const (
	Matched MatchStatus = iota
	Ambiguous
	Unmatched
)

func (s MatchStatus) String() string {
	switch s {
	case Matched:
		return "Matched"
	case Ambiguous:
		return "Ambiguous"
	case Unmatched:
		return "Unmatched"
	default:
		return "Unknown"
	}
}

// Recipe is a catalog entry with its matching keywords.
type Recipe struct {
	ID       uuid.UUID
	Name     string
	Keywords string // CSV like "sourdough,loaf"; the name is used when empty
}

type MatchResult struct {
	Status     MatchStatus
	Recipe     *Recipe  // when Matched
	Candidates []Recipe // when Ambiguous
}

// Matcher scores free-text product names against recipe keywords.
type Matcher struct {
	recipes  []Recipe
	keywords [][]string
}

const (
	variantWeight = 5
	regularWeight = 1
)

// Variant words separate otherwise similar products. A line that names one
// only matches recipes that carry it.
var variantKeywords = map[string]bool{
	"white": true, "wholemeal": true, "wholewheat": true, "rye": true,
	"spelt": true, "chocolate": true, "almond": true, "plain": true,
	"cheese": true, "seeded": true, "mini": true, "large": true,
	"small": true, "vegan": true, "glutenfree": true,
}

// NewMatcher indexes the keywords of recipes. A recipe without keywords is
// matched on its name.
func NewMatcher(recipes []Recipe) *Matcher {
	m := &Matcher{
		recipes:  recipes,
		keywords: make([][]string, len(recipes)),
	}
	for i, r := range recipes {
		src := r.Keywords
		if strings.TrimSpace(src) == "" {
			src = r.Name
		}
		seen := map[string]bool{}
		for _, part := range strings.FieldsFunc(src, func(r rune) bool { return r == ',' }) {
			for _, tok := range tokenize(part) {
				if !seen[tok] {
					seen[tok] = true
					m.keywords[i] = append(m.keywords[i], tok)
				}
			}
		}
	}
	return m
}

// Match returns the best scoring recipes for a product description.
func (m *Matcher) Match(text string) MatchResult {
	input := make(map[string]bool)
	for _, tok := range tokenize(text) {
		input[tok] = true
	}

	var wantVariants []string
	for tok := range input {
		if variantKeywords[tok] {
			wantVariants = append(wantVariants, tok)
		}
	}

	type scored struct {
		recipe Recipe
		score  int
	}
	var hits []scored
	best := 0

	for i, r := range m.recipes {
		kws := m.keywords[i]
		if !hasAll(kws, wantVariants) {
			continue
		}
		score := 0
		for _, kw := range kws {
			if !input[kw] {
				continue
			}
			if variantKeywords[kw] {
				score += variantWeight
			} else {
				score += regularWeight
			}
		}
		if score == 0 {
			continue
		}
		hits = append(hits, scored{recipe: r, score: score})
		if score > best {
			best = score
		}
	}

	var top []Recipe
	for _, h := range hits {
		if h.score == best {
			top = append(top, h.recipe)
		}
	}

	switch len(top) {
	case 0:
		return MatchResult{Status: Unmatched}
	case 1:
		return MatchResult{Status: Matched, Recipe: &top[0]}
	default:
		return MatchResult{Status: Ambiguous, Candidates: top}
	}
}

func hasAll(keywords, want []string) bool {
	for _, w := range want {
		found := false
		for _, kw := range keywords {
			if kw == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// tokenize lowercases, splits on anything that is not a letter or digit,
// joins "gluten free" and stems each word.
func tokenize(s string) []string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(' ')
		}
	}
	fields := strings.Fields(sb.String())

	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if tok == "gluten" && i+1 < len(fields) && fields[i+1] == "free" {
			tok = "glutenfree"
			i++
		}
		out = append(out, stem(tok))
	}
	return out
}

// stem folds plurals so "croissants" meets "croissant" and "pastries"
// meets "pastry". The result is only ever compared, never shown.
func stem(tok string) string {
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		tok = tok[:len(tok)-1]
	}
	if n := len(tok); n > 2 && tok[n-1] == 'y' && !strings.ContainsRune("aeiou", rune(tok[n-2])) {
		tok = tok[:n-1] + "ie"
	}
	return tok
}
