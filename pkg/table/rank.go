package table

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Tier orders how well a cell matches a query. Higher is better.
type Tier int

const (
	NoMatch Tier = iota
	Matches
	Acronym
	Contains
	WordStartsWith
	StartsWith
	Equal
	CaseSensitiveEqual
)

func (t Tier) String() string {
	switch t {
	case Matches:
		return "matches"
	case Acronym:
		return "acronym"
	case Contains:
		return "contains"
	case WordStartsWith:
		return "word-starts-with"
	case StartsWith:
		return "starts-with"
	case Equal:
		return "equal"
	case CaseSensitiveEqual:
		return "case-sensitive-equal"
	default:
		return "no-match"
	}
}

// Ranking is the outcome of ranking a text against a query. Within the
// Matches tier a smaller Distance is closer.
type Ranking struct {
	Tier     Tier
	Distance int
}

// Passed reports whether the text matched at all.
func (r Ranking) Passed() bool { return r.Tier > NoMatch }

// Better reports whether r ranks strictly above other.
func (r Ranking) Better(other Ranking) bool {
	if r.Tier != other.Tier {
		return r.Tier > other.Tier
	}
	return r.Tier == Matches && r.Distance < other.Distance
}

// Rank grades text against query from an exact case-sensitive match down to
// a loose in-order character match.
func Rank(text, query string) Ranking {
	if query == "" {
		return Ranking{Tier: Matches}
	}
	if len([]rune(query)) > len([]rune(text)) {
		return Ranking{}
	}
	if text == query {
		return Ranking{Tier: CaseSensitiveEqual}
	}

	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)
	switch {
	case lowerText == lowerQuery:
		return Ranking{Tier: Equal}
	case strings.HasPrefix(lowerText, lowerQuery):
		return Ranking{Tier: StartsWith}
	case strings.Contains(lowerText, " "+lowerQuery):
		return Ranking{Tier: WordStartsWith}
	case strings.Contains(lowerText, lowerQuery):
		return Ranking{Tier: Contains}
	case len([]rune(lowerQuery)) == 1:
		return Ranking{}
	case strings.Contains(acronym(lowerText), lowerQuery):
		return Ranking{Tier: Acronym}
	}

	if distance := fuzzy.RankMatchFold(lowerQuery, lowerText); distance >= 0 {
		return Ranking{Tier: Matches, Distance: distance}
	}
	return Ranking{}
}

func acronym(text string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	}) {
		r := []rune(word)
		b.WriteRune(r[0])
	}
	return b.String()
}
