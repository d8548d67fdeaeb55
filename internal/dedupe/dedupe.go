// Package dedupe merges records that resolve to the same identity key:
// ASCII-folded lowercase lemma for vocabulary, title slug for lessons.
// The first record seen for a key is primary; later records fill gaps
// (longest non-empty text, first non-nil enum) and union set-valued
// fields. Every merge is logged.
package dedupe

import (
	"encoding/json"
	"sort"

	"github.com/papapumpkin/refinery/internal/corpus"
)

// LogRow is one merge event for the dedup report.
type LogRow struct {
	EntryType string
	PrimaryID string
	MergedID  string
	Reason    string
}

// Result carries the merged collections plus the merge log.
type Result struct {
	Vocabulary []corpus.VocabularyEntry
	Lessons    []corpus.LessonEntry
	Log        []LogRow
}

// Dedupe merges both collections, preserving first-seen input order.
func Dedupe(vocab []corpus.VocabularyEntry, lessons []corpus.LessonEntry) Result {
	res := Result{Log: []LogRow{}}
	res.Vocabulary = dedupeVocabulary(vocab, &res.Log)
	res.Lessons = dedupeLessons(lessons, &res.Log)
	return res
}

func dedupeVocabulary(entries []corpus.VocabularyEntry, log *[]LogRow) []corpus.VocabularyEntry {
	index := map[string]int{}
	merged := []corpus.VocabularyEntry{}

	for _, entry := range entries {
		key := corpus.IdentityKey(entry.Lemma)
		i, seen := index[key]
		if !seen {
			entry.ID = corpus.NewVocabularyID(entry.Lemma)
			index[key] = len(merged)
			merged = append(merged, entry)
			continue
		}
		primary := &merged[i]
		*log = append(*log, LogRow{"vocabulary", primary.ID, entry.ID, "merged duplicate lemma"})

		primary.EnglishGloss = longerText(primary.EnglishGloss, entry.EnglishGloss)
		primary.DefinitionES = longerText(primary.DefinitionES, entry.DefinitionES)
		primary.Notes = longerText(primary.Notes, entry.Notes)
		primary.POS = firstEnum(primary.POS, entry.POS)
		primary.Gender = firstEnum(primary.Gender, entry.Gender)
		primary.Number = firstEnum(primary.Number, entry.Number)
		primary.Register = firstEnum(primary.Register, entry.Register)
		primary.Tags = unionSorted(primary.Tags, entry.Tags)
		primary.Synonyms = unionSorted(primary.Synonyms, entry.Synonyms)
		primary.Examples = unionExamples(primary.Examples, entry.Examples)
	}
	return merged
}

func dedupeLessons(entries []corpus.LessonEntry, log *[]LogRow) []corpus.LessonEntry {
	index := map[string]int{}
	merged := []corpus.LessonEntry{}

	for _, entry := range entries {
		// Set-valued fields are sorted unique for every lesson, not just
		// merged ones; practice refs reach output without another pass.
		entry.PracticeRefs = unionSorted(entry.PracticeRefs, nil)
		entry.RequiresGrammar = unionSorted(entry.RequiresGrammar, nil)
		entry.RequiresVocab = unionSorted(entry.RequiresVocab, nil)

		key := corpus.Slugify(entry.Title)
		i, seen := index[key]
		if !seen {
			entry.ID = corpus.NewLessonID(entry.Title)
			index[key] = len(merged)
			merged = append(merged, entry)
			continue
		}
		primary := &merged[i]
		*log = append(*log, LogRow{"lesson", primary.ID, entry.ID, "merged duplicate title"})

		primary.CEFRHint = firstEnum(primary.CEFRHint, entry.CEFRHint)
		primary.Objectives = appendUnique(primary.Objectives, entry.Objectives)
		primary.ContentBlocks = unionBlocks(primary.ContentBlocks, entry.ContentBlocks)
		primary.PracticeRefs = unionSorted(primary.PracticeRefs, entry.PracticeRefs)
		primary.RequiresGrammar = unionSorted(primary.RequiresGrammar, entry.RequiresGrammar)
		primary.RequiresVocab = unionSorted(primary.RequiresVocab, entry.RequiresVocab)
	}
	return merged
}

func longerText(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if len(a) >= len(b) {
		return a
	}
	return b
}

func firstEnum(a, b *string) *string {
	if a != nil && *a != "" {
		return a
	}
	return b
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := []string{}
	for _, v := range append(append([]string{}, a...), b...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func appendUnique(a, b []string) []string {
	out := append([]string{}, a...)
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// unionExamples deduplicates by structural equality, keeping first-seen
// order. The canonical JSON encoding is the equality key.
func unionExamples(a, b []corpus.Example) []corpus.Example {
	seen := map[string]bool{}
	out := []corpus.Example{}
	for _, ex := range append(append([]corpus.Example{}, a...), b...) {
		key := canonical(ex)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ex)
	}
	return out
}

func unionBlocks(a, b []corpus.ContentBlock) []corpus.ContentBlock {
	seen := map[string]bool{}
	out := []corpus.ContentBlock{}
	for _, blk := range append(append([]corpus.ContentBlock{}, a...), b...) {
		key := canonical(blk)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, blk)
	}
	return out
}

func canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
