// Package identity canonicalizes raw vendor strings into a clean company
// name plus an inferred country of origin. It is a best-effort heuristic
// resolver: absence of a result is expected for unrecognized vendors, and
// malformed input never causes an error.
package identity

import (
	"regexp"
	"strings"
)

// Result holds the normalizer output. Either field may be empty when the
// input carries no usable signal.
type Result struct {
	CompanyName string `json:"company_name,omitempty"`
	Country     string `json:"country,omitempty"`
}

// countryPattern maps a word-boundary alternation to a canonical country.
type countryPattern struct {
	re      *regexp.Regexp
	country string
}

// Pattern order matters where names overlap ("usa" vs "us"); longer and
// more specific alternations come first.
var countryPatterns = []countryPattern{
	{regexp.MustCompile(`\b(usa|u\.s\.a\.|u\.s\.|united states( of america)?|america)\b`), "united states"},
	{regexp.MustCompile(`\b(uk|u\.k\.|united kingdom|great britain|england|scotland|wales)\b`), "united kingdom"},
	{regexp.MustCompile(`\b(germany|deutschland)\b`), "germany"},
	{regexp.MustCompile(`\b(netherlands|nederland|holland)\b`), "netherlands"},
	{regexp.MustCompile(`\b(switzerland|schweiz|suisse)\b`), "switzerland"},
	{regexp.MustCompile(`\b(france)\b`), "france"},
	{regexp.MustCompile(`\b(italy|italia)\b`), "italy"},
	{regexp.MustCompile(`\b(spain|espana)\b`), "spain"},
	{regexp.MustCompile(`\b(belgium)\b`), "belgium"},
	{regexp.MustCompile(`\b(austria)\b`), "austria"},
	{regexp.MustCompile(`\b(ireland)\b`), "ireland"},
	{regexp.MustCompile(`\b(sweden)\b`), "sweden"},
	{regexp.MustCompile(`\b(denmark)\b`), "denmark"},
	{regexp.MustCompile(`\b(norway)\b`), "norway"},
	{regexp.MustCompile(`\b(finland)\b`), "finland"},
	{regexp.MustCompile(`\b(japan|nippon)\b`), "japan"},
	{regexp.MustCompile(`\b(china|prc)\b`), "china"},
	{regexp.MustCompile(`\b(india)\b`), "india"},
	{regexp.MustCompile(`\b(south korea|korea)\b`), "south korea"},
	{regexp.MustCompile(`\b(singapore)\b`), "singapore"},
	{regexp.MustCompile(`\b(australia)\b`), "australia"},
	{regexp.MustCompile(`\b(new zealand)\b`), "new zealand"},
	{regexp.MustCompile(`\b(canada)\b`), "canada"},
	{regexp.MustCompile(`\b(brazil|brasil)\b`), "brazil"},
	{regexp.MustCompile(`\b(mexico)\b`), "mexico"},
	{regexp.MustCompile(`\b(israel)\b`), "israel"},
}

// legalSuffixes are entity designators stripped from company names.
var legalSuffixes = []string{
	"incorporated", "corporation", "company", "limited",
	"ltd", "llc", "llp", "gmbh", "kgaa", "inc", "plc", "pvt", "bv", "nv",
	"sa", "s a", "srl", "sarl", "spa", "ag", "ab", "as", "oy", "kk",
	"co", "corp", "kg", "gbr", "pty", "cv",
}

var (
	leadingNumber = regexp.MustCompile(`^\s*\d+[\.\)]?\s+`)
	parenthetical = regexp.MustCompile(`\(([^)]*)\)`)
	connectors    = regexp.MustCompile(`\s*(,|&|\band\b)\s*`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a raw vendor string. Parenthesized region
// qualifiers are the strongest country signal and are checked first; if
// the text itself yields no country, the parent-company knowledge base
// is consulted as a fallback.
func Normalize(raw string) Result {
	return DefaultKnowledgeBase().Normalize(raw)
}

// Normalize canonicalizes a raw vendor string against this knowledge base.
func (kb *KnowledgeBase) Normalize(raw string) Result {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Result{}
	}

	s = leadingNumber.ReplaceAllString(s, "")

	// Pull parenthesized segments out; match countries there first.
	var country string
	var parenTexts []string
	for _, m := range parenthetical.FindAllStringSubmatch(s, -1) {
		parenTexts = append(parenTexts, m[1])
	}
	remainder := strings.TrimSpace(parenthetical.ReplaceAllString(s, " "))

	for _, p := range parenTexts {
		if c := matchCountry(p); c != "" {
			country = c
			break
		}
	}
	if country == "" {
		country = matchCountry(remainder)
	}

	name := cleanCompanyName(remainder)

	if country == "" && name != "" {
		country = kb.CountryFor(name)
	}

	return Result{CompanyName: name, Country: country}
}

func matchCountry(text string) string {
	for _, p := range countryPatterns {
		if p.re.MatchString(text) {
			return p.country
		}
	}
	return ""
}

// cleanCompanyName strips legal-entity suffixes and country tokens from
// an already lowercased string and collapses connectors and whitespace.
func cleanCompanyName(s string) string {
	for _, p := range countryPatterns {
		s = p.re.ReplaceAllString(s, " ")
	}

	s = connectors.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")

	// Suffixes only come off the tail, repeatedly: "mylan b v" loses
	// "v" then "b". Single-letter remnants of split designators count.
	words := strings.Fields(s)
	for len(words) > 1 {
		last := strings.Trim(words[len(words)-1], ".,")
		if isLegalSuffix(last) || len(last) == 1 {
			words = words[:len(words)-1]
			continue
		}
		break
	}

	return strings.Join(words, " ")
}

func isLegalSuffix(word string) bool {
	for _, suf := range legalSuffixes {
		if word == suf {
			return true
		}
	}
	return false
}
