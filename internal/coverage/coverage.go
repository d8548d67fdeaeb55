// Package coverage walks lesson text, resolves every token against the
// vocabulary index through exact and morphological-heuristic matching,
// and synthesizes stub vocabulary plus pre-vocab prerequisite lessons
// for whatever stays unresolved. It owns and grows both collections.
package coverage

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/tables"
)

// tokenRE matches maximal runs of letters including Spanish accented
// letters; everything else is a separator.
var tokenRE = regexp.MustCompile(`[A-Za-zÁÉÍÓÚÜÑáéíóúüñ]+`)

// Row is one line of the coverage report.
type Row struct {
	LessonID       string
	TotalTokens    int
	KnownTokens    int
	UnknownTokens  int
	PercentCovered float64
}

// StubRow records a stub vocabulary entry synthesized for a lesson.
type StubRow struct {
	LessonID string
	Lemma    string
}

// ForwardRef records a pre-vocab pack inserted ahead of a lesson.
type ForwardRef struct {
	LessonID  string
	PrepackID string
	Lemma     string
}

// Stats holds per-lesson token counts consumed by the orderer.
type Stats struct {
	TotalTokens   int
	KnownTokens   int
	UnknownTokens int
	UniqueTokens  int
}

// Result is the analyzer's output. Vocabulary and Lessons are the input
// collections grown with stubs and pre-vocab packs.
type Result struct {
	Vocabulary  []corpus.VocabularyEntry
	Lessons     []corpus.LessonEntry
	FormsMap    map[string]string
	Coverage    []Row
	Stubs       []StubRow
	ForwardRefs []ForwardRef
	Stats       map[string]Stats
}

// Analyze runs coverage analysis over the deduplicated collections. The
// vocabulary index must be complete before the first lesson is walked,
// which is why this stage runs strictly after deduplication.
func Analyze(vocab []corpus.VocabularyEntry, lessons []corpus.LessonEntry, t *tables.Tables) Result {
	res := Result{
		Vocabulary:  vocab,
		Lessons:     lessons,
		FormsMap:    map[string]string{},
		Coverage:    []Row{},
		Stubs:       []StubRow{},
		ForwardRefs: []ForwardRef{},
		Stats:       map[string]Stats{},
	}

	// Index entries by position so stub appends stay visible.
	index := map[string]int{}
	existingIDs := map[string]bool{}
	for i, entry := range res.Vocabulary {
		key := corpus.LemmaKey(entry.Lemma)
		index[key] = i
		res.FormsMap[key] = entry.Lemma
		existingIDs[entry.ID] = true
	}

	var prepacks []corpus.LessonEntry
	for li := range res.Lessons {
		lesson := &res.Lessons[li]
		stubs := res.analyzeLesson(lesson, index, existingIDs, t)
		if len(stubs) > 0 {
			prepack := res.buildPrepack(lesson, stubs)
			prepacks = append(prepacks, prepack)
		}
	}
	res.Lessons = append(res.Lessons, prepacks...)
	return res
}

// analyzeLesson tokenizes one lesson, resolves tokens, creates stubs,
// and updates the lesson's requires_vocab. It returns the indices of
// stubs created for this lesson, in creation order.
func (res *Result) analyzeLesson(lesson *corpus.LessonEntry, index map[string]int, existingIDs map[string]bool, t *tables.Tables) []int {
	var (
		total, known, unknown int
		unique                = map[string]bool{}
		stubIdx               []int
		stubIDs               = map[string]bool{}
	)
	requires := map[string]bool{}
	for _, id := range lesson.RequiresVocab {
		requires[id] = true
	}

	for _, text := range collectStrings(lesson.ContentBlocks) {
		for _, token := range tokenRE.FindAllString(text, -1) {
			total++
			key := corpus.LemmaKey(token)
			unique[key] = true

			entry, ok := res.resolve(key, index, t)
			if ok {
				known++
				requires[entry.ID] = true
				continue
			}
			unknown++
			vocabID := corpus.NewVocabularyID(token)
			if !existingIDs[vocabID] && !stubIDs[vocabID] {
				stub := newStub(token, vocabID)
				res.Vocabulary = append(res.Vocabulary, stub)
				index[key] = len(res.Vocabulary) - 1
				res.FormsMap[key] = token
				existingIDs[vocabID] = true
				stubIDs[vocabID] = true
				stubIdx = append(stubIdx, len(res.Vocabulary)-1)
				res.Stubs = append(res.Stubs, StubRow{LessonID: lesson.ID, Lemma: token})
			}
			requires[vocabID] = true
		}
	}

	percent := 100.0
	if total > 0 {
		percent = round2(float64(known) / float64(total) * 100)
	}
	res.Coverage = append(res.Coverage, Row{
		LessonID:       lesson.ID,
		TotalTokens:    total,
		KnownTokens:    known,
		UnknownTokens:  unknown,
		PercentCovered: percent,
	})
	res.Stats[lesson.ID] = Stats{
		TotalTokens:   total,
		KnownTokens:   known,
		UnknownTokens: unknown,
		UniqueTokens:  len(unique),
	}

	sorted := make([]string, 0, len(requires))
	for id := range requires {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)
	lesson.RequiresVocab = sorted

	return stubIdx
}

// resolve looks a token key up in order: direct lemma match, cached
// forms-map redirect, plural heuristic, verb-ending heuristic. Heuristic
// hits cache the surface→lemma mapping in the forms map.
func (res *Result) resolve(key string, index map[string]int, t *tables.Tables) (*corpus.VocabularyEntry, bool) {
	if i, ok := index[key]; ok {
		return &res.Vocabulary[i], true
	}
	if lemma, ok := res.FormsMap[key]; ok {
		if i, ok := index[corpus.LemmaKey(lemma)]; ok {
			return &res.Vocabulary[i], true
		}
	}
	for _, guess := range pluralGuesses(key) {
		if i, ok := index[guess]; ok {
			res.FormsMap[key] = res.Vocabulary[i].Lemma
			return &res.Vocabulary[i], true
		}
	}
	for _, guess := range verbGuesses(key, t.VerbEndings) {
		if i, ok := index[corpus.LemmaKey(guess)]; ok {
			res.FormsMap[key] = res.Vocabulary[i].Lemma
			return &res.Vocabulary[i], true
		}
	}
	return nil, false
}

// pluralGuesses strips the Spanish plural endings "es" then "s".
func pluralGuesses(key string) []string {
	var guesses []string
	if len(key) > 2 && key[len(key)-2:] == "es" {
		guesses = append(guesses, key[:len(key)-2])
	}
	if len(key) > 1 && key[len(key)-1] == 's' {
		guesses = append(guesses, key[:len(key)-1])
	}
	return guesses
}

// verbGuesses strips each inflectional ending in order and reconstructs
// all three infinitive endings from the stem. The stem must keep at
// least three letters beyond the stripped ending.
func verbGuesses(key string, endings []string) []string {
	var guesses []string
	keyLen := utf8.RuneCountInString(key)
	for _, ending := range endings {
		if len(key) < len(ending) || key[len(key)-len(ending):] != ending {
			continue
		}
		if keyLen <= utf8.RuneCountInString(ending)+2 {
			continue
		}
		stem := key[:len(key)-len(ending)]
		guesses = append(guesses, stem+"ar", stem+"er", stem+"ir")
	}
	return guesses
}

func newStub(token, id string) corpus.VocabularyEntry {
	return corpus.VocabularyEntry{
		ID:       id,
		Type:     "vocabulary",
		Lemma:    token,
		Tags:     []string{"auto_stub", "needs_review"},
		Examples: []corpus.Example{},
		Synonyms: []string{},
	}
}

// buildPrepack synthesizes the "Pre-vocab Pack" prerequisite lesson for
// the given stub entries and wires it into the source lesson's
// requires_grammar.
func (res *Result) buildPrepack(lesson *corpus.LessonEntry, stubIdx []int) corpus.LessonEntry {
	prepackID := "lesson__" + corpus.Slugify("pre-vocab "+lesson.Title)

	items := make([]corpus.Example, 0, len(stubIdx))
	requires := make([]string, 0, len(stubIdx))
	for _, i := range stubIdx {
		stub := res.Vocabulary[i]
		items = append(items, corpus.Example{ES: stub.Lemma, EN: stub.EnglishGloss})
		requires = append(requires, stub.ID)
		res.ForwardRefs = append(res.ForwardRefs, ForwardRef{
			LessonID:  lesson.ID,
			PrepackID: prepackID,
			Lemma:     stub.Lemma,
		})
	}

	prepack := corpus.LessonEntry{
		ID:         prepackID,
		Type:       "lesson",
		Title:      "Pre-vocab Pack: " + lesson.Title,
		CEFRHint:   lesson.CEFRHint,
		Objectives: []string{fmt.Sprintf("Aprender vocabulario clave para %s", lesson.Title)},
		ContentBlocks: []corpus.ContentBlock{
			{
				Kind: "explanation",
				Text: "Este paquete introduce vocabulario necesario para la lección siguiente.",
			},
			{Kind: "examples", Items: items},
		},
		PracticeRefs:    []string{},
		RequiresGrammar: []string{},
		RequiresVocab:   requires,
	}

	if !contains(lesson.RequiresGrammar, prepackID) {
		lesson.RequiresGrammar = append(lesson.RequiresGrammar, prepackID)
	}
	return prepack
}

// collectStrings gathers the textual content of each block: explanation
// text, example source text, and table cell values. Unknown kinds
// contribute any plain string payloads they carry.
func collectStrings(blocks []corpus.ContentBlock) []string {
	var out []string
	for _, block := range blocks {
		switch block.Kind {
		case "explanation":
			if block.Text != "" {
				out = append(out, block.Text)
			}
		case "examples":
			for _, item := range block.Items {
				if item.ES != "" {
					out = append(out, item.ES)
				}
			}
		case "table":
			out = append(out, tableStrings(block.Data)...)
		default:
			if block.Text != "" {
				out = append(out, block.Text)
			}
			if s, ok := block.Data.(string); ok && s != "" {
				out = append(out, s)
			}
			out = append(out, extraStrings(block.Extra)...)
		}
	}
	return out
}

func tableStrings(data any) []string {
	var out []string
	switch d := data.(type) {
	case string:
		out = append(out, d)
	case map[string]any:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v := d[k].(type) {
			case string:
				out = append(out, v)
			case []any:
				for _, item := range v {
					if s, ok := item.(string); ok {
						out = append(out, s)
					}
				}
			}
		}
	}
	return out
}

func extraStrings(extra map[string]any) []string {
	if len(extra) == 0 {
		return nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		if s, ok := extra[k].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
