// Package tables holds the heuristic lookup tables used by the
// normalizer, coverage analyzer and orderer: enum alias maps, the
// common-lemma allow-list, part-of-speech weights, grammar-complexity
// keywords and the verb-ending list. The defaults are decoded from an
// embedded TOML document so tests can swap in alternate tables without
// touching package-level state.
package tables

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed tables.toml
var defaultTOML []byte

// Tables is an immutable bundle of heuristic configuration. Stages
// receive a *Tables and never mutate it.
type Tables struct {
	POSAliases      map[string]string  `toml:"pos_aliases"`
	AllowedPOS      []string           `toml:"allowed_pos"`
	GenderAliases   map[string]string  `toml:"gender_aliases"`
	NumberAliases   map[string]string  `toml:"number_aliases"`
	RegisterAliases map[string]string  `toml:"register_aliases"`
	CEFRLevels      []string           `toml:"cefr_levels"`
	CommonLemmas    []string           `toml:"common_lemmas"`
	POSWeights      map[string]float64 `toml:"pos_weights"`
	DefaultPOSWeight float64           `toml:"default_pos_weight"`
	GrammarKeywords map[string]float64 `toml:"grammar_keywords"`
	VerbEndings     []string           `toml:"verb_endings"`

	allowedPOS   map[string]bool
	commonLemmas map[string]bool
}

var defaults = sync.OnceValue(func() *Tables {
	t, err := Parse(defaultTOML)
	if err != nil {
		panic(fmt.Sprintf("tables: embedded defaults invalid: %v", err))
	}
	return t
})

// Default returns the built-in tables. The result is shared; callers must
// not modify it.
func Default() *Tables {
	return defaults()
}

// Parse decodes a TOML tables document and builds the lookup sets.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	t.allowedPOS = make(map[string]bool, len(t.AllowedPOS))
	for _, p := range t.AllowedPOS {
		t.allowedPOS[p] = true
	}
	t.commonLemmas = make(map[string]bool, len(t.CommonLemmas))
	for _, l := range t.CommonLemmas {
		t.commonLemmas[l] = true
	}
	// The ending list is an ordered set; a duplicate ending would just
	// re-try the same stems.
	t.VerbEndings = dedupeOrdered(t.VerbEndings)
	return &t, nil
}

// IsAllowedPOS reports whether p is one of the closed part-of-speech
// enum values.
func (t *Tables) IsAllowedPOS(p string) bool {
	return t.allowedPOS[p]
}

// IsCommonLemma reports whether the (lowercased) lemma is on the
// common-word allow-list.
func (t *Tables) IsCommonLemma(lemma string) bool {
	return t.commonLemmas[lemma]
}

// POSWeight returns the difficulty weight for a part of speech, falling
// back to the default weight for unknown or absent values.
func (t *Tables) POSWeight(pos *string) float64 {
	if pos != nil {
		if w, ok := t.POSWeights[*pos]; ok {
			return w
		}
	}
	return t.DefaultPOSWeight
}

func dedupeOrdered(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
