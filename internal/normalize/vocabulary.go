package normalize

import (
	"strings"

	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/tables"
)

// Vocabulary canonicalizes vocabulary-stream records. Records without a
// recoverable lemma are dropped and reported for manual review.
func Vocabulary(records []corpus.RawRecord, t *tables.Tables) ([]corpus.VocabularyEntry, []corpus.ManualReviewItem) {
	entries := []corpus.VocabularyEntry{}
	manual := []corpus.ManualReviewItem{}

	for _, rec := range records {
		data := rec.Data
		lemma := firstNonEmpty(data, "lemma", "spanish", "word", "palabra")
		if lemma == "" {
			manual = append(manual, corpus.ManualReviewItem{
				SourcePath: rec.SourcePath,
				Reason:     "missing lemma",
			})
			continue
		}
		lemma = corpus.NormalizeString(lemma)

		pos := normalizePOS(firstNonEmpty(data, "pos", "part_of_speech", "tipo"), t)
		gender := mapEnum(firstNonEmpty(data, "gender", "genero"), t.GenderAliases)
		number := mapEnum(firstNonEmpty(data, "number", "numero"), t.NumberAliases)
		register := mapEnum(firstNonEmpty(data, "register", "registro"), t.RegisterAliases)

		tags := asStringList(firstPresent(data, "tags", "labels", "etiquetas"))
		if register == nil && data["register"] != nil {
			tags = append(tags, "needs_review")
		}
		if pos == nil {
			tags = append(tags, "needs_review")
		}

		entries = append(entries, corpus.VocabularyEntry{
			ID:           corpus.NewVocabularyID(lemma),
			Type:         "vocabulary",
			Lemma:        lemma,
			POS:          pos,
			Gender:       gender,
			Number:       number,
			EnglishGloss: firstNonEmpty(data, "english_gloss", "gloss", "meaning", "english"),
			DefinitionES: firstNonEmpty(data, "definition_es", "def_es", "definicion", "definition"),
			Register:     register,
			Tags:         sortedSet(tags),
			Examples:     asExamples(firstPresent(data, "examples", "ejemplos")),
			Synonyms:     sortedSet(asStringList(firstPresent(data, "synonyms", "sinonimos"))),
			Notes:        firstNonEmpty(data, "notes", "nota", "notas"),
		})
	}
	return entries, manual
}

// normalizePOS maps a free-form part-of-speech value to the closed enum.
// Unknown values drop to nil; the caller tags the entry needs_review.
func normalizePOS(value string, t *tables.Tables) *string {
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(strings.TrimSpace(strings.ToLower(value)), ".", "")
	if mapped, ok := t.POSAliases[value]; ok {
		return &mapped
	}
	if t.IsAllowedPOS(value) {
		return &value
	}
	return nil
}
