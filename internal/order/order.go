// Package order assigns difficulty scores, resolves lesson prerequisite
// references, links sequentially-named lesson parts, and produces the
// final deterministic orderings: vocabulary sorted by (difficulty,
// lemma) and lessons topologically sorted by prerequisite with easier
// lessons first among the unblocked.
package order

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/coverage"
	"github.com/papapumpkin/refinery/internal/dag"
	"github.com/papapumpkin/refinery/internal/tables"
)

// partRE matches titles like "Ser y Estar Part 2" or "Verbos - Parte 3".
var partRE = regexp.MustCompile(`(?i)(.*?)(?:\s*-)?\s*part(?:e)?\s*(\d+)`)

// Result holds the final id orderings.
type Result struct {
	VocabularyOrder []string `json:"vocabulary_order"`
	LessonOrder     []string `json:"lesson_order"`
}

// Order takes ownership of both collections, assigns difficulty scores,
// resolves prerequisites, and returns the collections (vocabulary
// re-sorted) together with the orderings. A prerequisite cycle is fatal
// and surfaces as a *dag.CycleError.
func Order(vocab []corpus.VocabularyEntry, lessons []corpus.LessonEntry, stats map[string]coverage.Stats, t *tables.Tables) ([]corpus.VocabularyEntry, []corpus.LessonEntry, Result, error) {
	for i := range vocab {
		vocab[i].Difficulty = ScoreVocabulary(vocab[i], t)
	}
	sort.SliceStable(vocab, func(i, j int) bool {
		if vocab[i].Difficulty != vocab[j].Difficulty {
			return vocab[i].Difficulty < vocab[j].Difficulty
		}
		return vocab[i].Lemma < vocab[j].Lemma
	})
	vocabOrder := make([]string, len(vocab))
	for i, entry := range vocab {
		vocabOrder[i] = entry.ID
	}

	resolvePrerequisites(lessons)
	linkParts(lessons)

	g := dag.New()
	for i := range lessons {
		lessons[i].Difficulty = ScoreLesson(lessons[i], stats[lessons[i].ID], t)
		if err := g.AddNode(lessons[i].ID, lessons[i].Difficulty); err != nil {
			return nil, nil, Result{}, err
		}
	}
	for _, lesson := range lessons {
		for _, prereq := range lesson.RequiresGrammar {
			g.AddDep(lesson.ID, prereq)
		}
	}
	lessonOrder, err := g.Sort()
	if err != nil {
		return nil, nil, Result{}, err
	}

	return vocab, lessons, Result{VocabularyOrder: vocabOrder, LessonOrder: lessonOrder}, nil
}

// ScoreVocabulary computes a vocabulary difficulty in [1.0, 10.0]:
// base 1.0, +0.5 off the common-word allow-list, a part-of-speech
// weight, +0.4 for irregular forms, +0.1 for long lemmas.
func ScoreVocabulary(entry corpus.VocabularyEntry, t *tables.Tables) float64 {
	score := 1.0
	if !t.IsCommonLemma(strings.ToLower(entry.Lemma)) {
		score += 0.5
	}
	score += t.POSWeight(entry.POS)
	for _, tag := range entry.Tags {
		if tag == "irregular" {
			score += 0.4
			break
		}
	}
	if utf8.RuneCountInString(entry.Lemma) >= 10 {
		score += 0.1
	}
	return clamp(score)
}

// ScoreLesson computes a lesson difficulty in [1.0, 10.0] from
// grammar-complexity keywords in the lesson text, table presence, unique
// token load, and requirement counts.
func ScoreLesson(lesson corpus.LessonEntry, stats coverage.Stats, t *tables.Tables) float64 {
	score := 2.0
	text := strings.ToLower(lessonText(lesson))

	// Iterate keywords in sorted order so float accumulation is
	// reproducible run to run.
	keywords := make([]string, 0, len(t.GrammarKeywords))
	for k := range t.GrammarKeywords {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			score += t.GrammarKeywords[keyword]
		}
	}

	for _, block := range lesson.ContentBlocks {
		if block.Kind == "table" {
			score += 0.5
			break
		}
	}

	score += float64(stats.UniqueTokens) / 100.0
	score += float64(len(lesson.RequiresVocab)) * 0.02
	score += float64(len(lesson.RequiresGrammar)) * 0.3
	return clamp(score)
}

// resolvePrerequisites maps each requires_grammar reference onto a known
// lesson id, trying the raw id, the exact title (case-insensitive), and
// the title slug in that order. Unresolvable references drop silently.
func resolvePrerequisites(lessons []corpus.LessonEntry) {
	knownIDs := make(map[string]bool, len(lessons))
	idByTitle := make(map[string]string, len(lessons))
	idBySlug := make(map[string]string, len(lessons))
	for _, lesson := range lessons {
		knownIDs[lesson.ID] = true
		idByTitle[strings.ToLower(lesson.Title)] = lesson.ID
		idBySlug[corpus.Slugify(lesson.Title)] = lesson.ID
	}

	for i := range lessons {
		var resolved []string
		for _, req := range lessons[i].RequiresGrammar {
			switch {
			case knownIDs[req]:
				resolved = append(resolved, req)
			case idByTitle[strings.ToLower(req)] != "":
				resolved = append(resolved, idByTitle[strings.ToLower(req)])
			case idBySlug[corpus.Slugify(req)] != "":
				resolved = append(resolved, idBySlug[corpus.Slugify(req)])
			}
		}
		lessons[i].RequiresGrammar = sortedUnique(resolved)
	}
}

// linkParts detects "<base> Part <N>" title groups and chains each part
// onto its predecessor.
func linkParts(lessons []corpus.LessonEntry) {
	type part struct {
		index int
		id    string
	}
	groups := map[string][]part{}
	for _, lesson := range lessons {
		m := partRE.FindStringSubmatch(lesson.Title)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		base := strings.ToLower(strings.TrimSpace(m[1]))
		groups[base] = append(groups[base], part{index: index, id: lesson.ID})
	}

	byID := make(map[string]int, len(lessons))
	for i, lesson := range lessons {
		byID[lesson.ID] = i
	}

	bases := make([]string, 0, len(groups))
	for base := range groups {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	for _, base := range bases {
		parts := groups[base]
		sort.Slice(parts, func(i, j int) bool {
			if parts[i].index != parts[j].index {
				return parts[i].index < parts[j].index
			}
			return parts[i].id < parts[j].id
		})
		for i := 1; i < len(parts); i++ {
			current := &lessons[byID[parts[i].id]]
			if !containsString(current.RequiresGrammar, parts[i-1].id) {
				current.RequiresGrammar = append(current.RequiresGrammar, parts[i-1].id)
				sort.Strings(current.RequiresGrammar)
			}
		}
	}
}

// lessonText concatenates every textual payload of the lesson's blocks.
func lessonText(lesson corpus.LessonEntry) string {
	var pieces []string
	for _, block := range lesson.ContentBlocks {
		if block.Text != "" {
			pieces = append(pieces, block.Text)
		}
		if s, ok := block.Data.(string); ok && s != "" {
			pieces = append(pieces, s)
		}
		for _, item := range block.Items {
			if item.ES != "" {
				pieces = append(pieces, item.ES)
			}
			if item.EN != "" {
				pieces = append(pieces, item.EN)
			}
		}
	}
	return strings.Join(pieces, " \n")
}

func sortedUnique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := []string{}
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func clamp(score float64) float64 {
	score = math.Round(score*100) / 100
	return math.Max(1.0, math.Min(10.0, score))
}
