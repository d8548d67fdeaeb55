// Package corpus defines the entity model shared by every pipeline stage:
// raw records as loaded from disk, canonical vocabulary and lesson entries,
// and the diagnostic records (rejects, manual-review items) that stages
// emit alongside their primary output.
package corpus

// Stream names the two input streams a record can originate from.
type Stream string

const (
	StreamLessons    Stream = "lessons"
	StreamVocabulary Stream = "vocabulary"
)

// RawRecord is a parsed but not yet classified input object. Keys are
// already snake_cased and string leaves NFC-normalized by the loader.
type RawRecord struct {
	Data       map[string]any
	SourcePath string
	Origin     Stream
}

// Reject records a file (or a single entry within a file) that could not
// be parsed after all repair attempts. Rejects are terminal: reported,
// never retried.
type Reject struct {
	SourcePath string `json:"path"`
	Origin     Stream `json:"stream"`
	Error      string `json:"error"`
}

// ManualReviewItem flags a record that needs a human decision: ambiguous
// classification or a missing required field. In strict mode any
// accumulated item is fatal.
type ManualReviewItem struct {
	SourcePath string `json:"path"`
	Reason     string `json:"reason"`
	Origin     Stream `json:"original_stream,omitempty"`
}

// Example is a bilingual source/target sentence pair.
type Example struct {
	ES string `json:"es"`
	EN string `json:"en"`
}

// VocabularyEntry is the canonical vocabulary record. ID is always
// "vocab__" + slug of the lemma.
type VocabularyEntry struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Lemma        string    `json:"lemma"`
	POS          *string   `json:"pos"`
	Gender       *string   `json:"gender"`
	Number       *string   `json:"number"`
	EnglishGloss string    `json:"english_gloss"`
	DefinitionES string    `json:"definition_es"`
	Register     *string   `json:"register"`
	Tags         []string  `json:"tags"`
	Examples     []Example `json:"examples"`
	Synonyms     []string  `json:"synonyms"`
	Notes        string    `json:"notes"`
	Difficulty   float64   `json:"difficulty,omitempty"`
}

// ContentBlock is one typed piece of lesson content. Kind is one of
// "explanation", "examples", "table", or whatever the source declared;
// the remaining fields are populated per kind.
type ContentBlock struct {
	Kind  string    `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Items []Example `json:"items,omitempty"`
	Data  any       `json:"data,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// LessonEntry is the canonical lesson record. ID is always
// "lesson__" + slug of the title.
type LessonEntry struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	CEFRHint        *string        `json:"cefr_hint"`
	Objectives      []string       `json:"objectives"`
	ContentBlocks   []ContentBlock `json:"content_blocks"`
	PracticeRefs    []string       `json:"practice_refs"`
	RequiresGrammar []string       `json:"requires_grammar"`
	RequiresVocab   []string       `json:"requires_vocab"`
	Difficulty      float64        `json:"difficulty,omitempty"`
}

// NewVocabularyID builds the canonical id for a lemma.
func NewVocabularyID(lemma string) string {
	return "vocab__" + Slugify(lemma)
}

// NewLessonID builds the canonical id for a lesson title.
func NewLessonID(title string) string {
	return "lesson__" + Slugify(title)
}
