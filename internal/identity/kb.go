package identity

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed parents.yaml
var defaultKB []byte

// KnowledgeBase maps known parent companies to their home country. It is
// data, not code: the embedded default can be replaced by any yaml file
// with the same shape.
type KnowledgeBase struct {
	// Companies maps a lowercased company name to a lowercased country.
	Companies map[string]string `yaml:"companies"`
}

var (
	defaultOnce sync.Once
	defaultInst *KnowledgeBase
)

// DefaultKnowledgeBase returns the built-in parent-company table.
func DefaultKnowledgeBase() *KnowledgeBase {
	defaultOnce.Do(func() {
		kb := &KnowledgeBase{}
		// The embedded file is validated by tests; an unparseable KB
		// degrades to an empty table rather than failing normalization.
		if err := yaml.Unmarshal(defaultKB, kb); err != nil || kb.Companies == nil {
			kb.Companies = map[string]string{}
		}
		defaultInst = kb
	})
	return defaultInst
}

// LoadKnowledgeBase reads a knowledge base from a yaml file.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "identity: read knowledge base %s", path)
	}
	kb := &KnowledgeBase{}
	if err := yaml.Unmarshal(data, kb); err != nil {
		return nil, eris.Wrap(err, "identity: parse knowledge base")
	}
	if kb.Companies == nil {
		kb.Companies = map[string]string{}
	}
	normalized := make(map[string]string, len(kb.Companies))
	for k, v := range kb.Companies {
		normalized[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	kb.Companies = normalized
	return kb, nil
}

// CountryFor resolves a cleaned company name to a country using three
// fallback tiers in order: exact match, substring/overlap match, then
// word-set overlap. Returns "" when nothing matches.
func (kb *KnowledgeBase) CountryFor(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	// Tier 1: exact.
	if c, ok := kb.Companies[name]; ok {
		return c
	}

	// Prefer longer keys so "thermo fisher scientific" wins over a
	// shorter key that happens to overlap; ties break alphabetically
	// to keep results deterministic.
	keys := kb.sortedKeys()

	// Tier 2: strict containment, or length-overlap ratio >= 0.6.
	for _, key := range keys {
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return kb.Companies[key]
		}
		if overlapRatio(name, key) >= 0.6 {
			return kb.Companies[key]
		}
	}

	// Tier 3: at least half of the shorter name's words must match.
	nameWords := wordSet(name)
	for _, key := range keys {
		keyWords := wordSet(key)
		shorter := len(nameWords)
		if len(keyWords) < shorter {
			shorter = len(keyWords)
		}
		if shorter == 0 {
			continue
		}
		common := 0
		for w := range nameWords {
			if keyWords[w] {
				common++
			}
		}
		if common*2 >= shorter {
			return kb.Companies[key]
		}
	}

	return ""
}

func (kb *KnowledgeBase) sortedKeys() []string {
	keys := make([]string, 0, len(kb.Companies))
	for k := range kb.Companies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// overlapRatio is the length of the longest common prefix-aligned
// substring match divided by the longer length. Cheap proxy for edit
// similarity that is good enough for brand prefixes ("thermo fisher
// scientific" vs "thermo fisher").
func overlapRatio(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(longer) == 0 {
		return 0
	}
	n := 0
	for n < len(shorter) && shorter[n] == longer[n] {
		n++
	}
	return float64(n) / float64(len(longer))
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(s) {
		out[w] = true
	}
	return out
}
