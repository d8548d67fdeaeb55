package coverage

import (
	"reflect"
	"testing"

	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/tables"
)

func vocabEntry(lemma string) corpus.VocabularyEntry {
	return corpus.VocabularyEntry{
		ID:    corpus.NewVocabularyID(lemma),
		Type:  "vocabulary",
		Lemma: lemma,
	}
}

func textLesson(title, text string) corpus.LessonEntry {
	return corpus.LessonEntry{
		ID:    corpus.NewLessonID(title),
		Type:  "lesson",
		Title: title,
		ContentBlocks: []corpus.ContentBlock{
			{Kind: "explanation", Text: text},
		},
	}
}

func TestAnalyzeVerbHeuristicAndStubs(t *testing.T) {
	t.Parallel()
	res := Analyze(
		[]corpus.VocabularyEntry{vocabEntry("hablar")},
		[]corpus.LessonEntry{textLesson("Conversación", "Nosotros hablamos con amigos nuevos.")},
		tables.Default(),
	)

	if len(res.Coverage) != 1 {
		t.Fatalf("coverage rows = %d", len(res.Coverage))
	}
	row := res.Coverage[0]
	if row.TotalTokens != 5 || row.KnownTokens != 1 || row.UnknownTokens != 4 {
		t.Errorf("row = %+v, want 5 total / 1 known / 4 unknown", row)
	}
	if row.PercentCovered != 20.0 {
		t.Errorf("percent = %v, want 20", row.PercentCovered)
	}

	if got := res.FormsMap["hablamos"]; got != "hablar" {
		t.Errorf("forms_map[hablamos] = %q, want hablar via verb-ending heuristic", got)
	}
	if _, ok := res.FormsMap["nuevos"]; !ok {
		t.Errorf("forms_map missing surface form nuevos: %v", res.FormsMap)
	}

	// One stub per unresolved token, in text order, lemma keeping the
	// surface form.
	wantStubs := []StubRow{
		{LessonID: "lesson__conversacion", Lemma: "Nosotros"},
		{LessonID: "lesson__conversacion", Lemma: "con"},
		{LessonID: "lesson__conversacion", Lemma: "amigos"},
		{LessonID: "lesson__conversacion", Lemma: "nuevos"},
	}
	if !reflect.DeepEqual(res.Stubs, wantStubs) {
		t.Errorf("stubs = %v, want %v", res.Stubs, wantStubs)
	}
	if len(res.Vocabulary) != 5 {
		t.Fatalf("vocabulary = %d entries, want hablar + 4 stubs", len(res.Vocabulary))
	}
	stub := res.Vocabulary[1]
	if !reflect.DeepEqual(stub.Tags, []string{"auto_stub", "needs_review"}) {
		t.Errorf("stub tags = %v", stub.Tags)
	}

	lesson := res.Lessons[0]
	wantRequires := []string{
		"vocab__amigos", "vocab__con", "vocab__hablar",
		"vocab__nosotros", "vocab__nuevos",
	}
	if !reflect.DeepEqual(lesson.RequiresVocab, wantRequires) {
		t.Errorf("requires_vocab = %v, want %v", lesson.RequiresVocab, wantRequires)
	}

	if len(res.Lessons) != 2 {
		t.Fatalf("lessons = %d, want source + pre-vocab pack", len(res.Lessons))
	}
	prepack := res.Lessons[1]
	if prepack.ID != "lesson__pre-vocab-conversacion" {
		t.Errorf("prepack id = %q", prepack.ID)
	}
	if prepack.Title != "Pre-vocab Pack: Conversación" {
		t.Errorf("prepack title = %q", prepack.Title)
	}
	if !reflect.DeepEqual(lesson.RequiresGrammar, []string{prepack.ID}) {
		t.Errorf("lesson requires_grammar = %v", lesson.RequiresGrammar)
	}
	wantPrepackVocab := []string{"vocab__nosotros", "vocab__con", "vocab__amigos", "vocab__nuevos"}
	if !reflect.DeepEqual(prepack.RequiresVocab, wantPrepackVocab) {
		t.Errorf("prepack requires_vocab = %v", prepack.RequiresVocab)
	}
	if len(res.ForwardRefs) != 4 || res.ForwardRefs[0].PrepackID != prepack.ID {
		t.Errorf("forward refs = %v", res.ForwardRefs)
	}
}

func TestResolvePluralHeuristic(t *testing.T) {
	t.Parallel()
	res := Analyze(
		[]corpus.VocabularyEntry{vocabEntry("amigo"), vocabEntry("ciudad")},
		[]corpus.LessonEntry{textLesson("Plurales", "amigos ciudades")},
		tables.Default(),
	)
	row := res.Coverage[0]
	if row.KnownTokens != 2 || row.UnknownTokens != 0 {
		t.Errorf("row = %+v, want both plurals resolved", row)
	}
	if res.FormsMap["amigos"] != "amigo" || res.FormsMap["ciudades"] != "ciudad" {
		t.Errorf("forms map = %v", res.FormsMap)
	}
	if len(res.Stubs) != 0 || len(res.Lessons) != 1 {
		t.Errorf("stubs = %v, lessons = %d", res.Stubs, len(res.Lessons))
	}
}

func TestVerbGuessesStemLengthGuard(t *testing.T) {
	t.Parallel()
	// "vamos" strips "amos" to a one-letter stem, below the three-rune
	// minimum; no infinitive guesses may come out of it.
	if got := verbGuesses("vamos", tables.Default().VerbEndings); len(got) != 0 {
		t.Errorf("verbGuesses(vamos) = %v, want none", got)
	}
	got := verbGuesses("hablamos", tables.Default().VerbEndings)
	want := []string{"hablar", "habler", "hablir"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("verbGuesses(hablamos) = %v, want %v", got, want)
	}
}

func TestStubSharedAcrossLessons(t *testing.T) {
	t.Parallel()
	res := Analyze(
		nil,
		[]corpus.LessonEntry{
			textLesson("Primera", "montaña"),
			textLesson("Segunda", "montaña"),
		},
		tables.Default(),
	)
	if len(res.Stubs) != 1 {
		t.Fatalf("stubs = %v, want single shared stub", res.Stubs)
	}
	// The second lesson resolves the token against the stub created by
	// the first; only the first lesson gets a pre-vocab pack.
	if res.Coverage[1].KnownTokens != 1 {
		t.Errorf("second lesson coverage = %+v", res.Coverage[1])
	}
	if len(res.Lessons) != 3 {
		t.Errorf("lessons = %d, want 2 sources + 1 prepack", len(res.Lessons))
	}
	for _, lesson := range res.Lessons[:2] {
		if !reflect.DeepEqual(lesson.RequiresVocab, []string{"vocab__montana"}) {
			t.Errorf("lesson %s requires_vocab = %v", lesson.ID, lesson.RequiresVocab)
		}
	}
}

func TestEmptyLessonFullCoverage(t *testing.T) {
	t.Parallel()
	res := Analyze(nil, []corpus.LessonEntry{{
		ID: "lesson__vacia", Type: "lesson", Title: "Vacía",
	}}, tables.Default())
	row := res.Coverage[0]
	if row.TotalTokens != 0 || row.PercentCovered != 100.0 {
		t.Errorf("row = %+v, want empty lesson fully covered", row)
	}
}

func TestCollectStringsTableAndExamples(t *testing.T) {
	t.Parallel()
	blocks := []corpus.ContentBlock{
		{Kind: "explanation", Text: "Texto principal."},
		{Kind: "examples", Items: []corpus.Example{{ES: "Hola.", EN: "Hello."}}},
		{Kind: "table", Data: map[string]any{
			"yo": "soy",
			"tu": []any{"eres"},
		}},
		{Kind: "note", Text: "Apunte.", Extra: map[string]any{"hint": "pista"}},
	}
	got := collectStrings(blocks)
	want := []string{"Texto principal.", "Hola.", "eres", "soy", "Apunte.", "pista"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectStrings = %v, want %v", got, want)
	}
}
