package order

import (
	"errors"
	"reflect"
	"testing"

	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/coverage"
	"github.com/papapumpkin/refinery/internal/dag"
	"github.com/papapumpkin/refinery/internal/tables"
)

func strPtr(s string) *string { return &s }

func TestScoreVocabulary(t *testing.T) {
	t.Parallel()
	tab := tables.Default()
	cases := []struct {
		name  string
		entry corpus.VocabularyEntry
		want  float64
	}{
		{
			name:  "common lemma no pos",
			entry: corpus.VocabularyEntry{Lemma: "ser"},
			want:  1.2, // 1.0 + default pos weight
		},
		{
			name:  "uncommon noun",
			entry: corpus.VocabularyEntry{Lemma: "casa grande", POS: strPtr("noun")},
			want:  1.9, // 1.0 + 0.5 + 0.3 + 0.1 long lemma
		},
		{
			name:  "uncommon verb",
			entry: corpus.VocabularyEntry{Lemma: "hablar", POS: strPtr("verb")},
			want:  2.3, // 1.0 + 0.5 + 0.8
		},
		{
			name: "irregular verb",
			entry: corpus.VocabularyEntry{
				Lemma: "dormir", POS: strPtr("verb"), Tags: []string{"irregular"},
			},
			want: 2.7,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ScoreVocabulary(tc.entry, tab); got != tc.want {
				t.Errorf("ScoreVocabulary = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScoreLesson(t *testing.T) {
	t.Parallel()
	tab := tables.Default()
	lesson := corpus.LessonEntry{
		ID:    "lesson__subjuntivo",
		Title: "Subjuntivo",
		ContentBlocks: []corpus.ContentBlock{
			{Kind: "explanation", Text: "El subjuntivo expresa deseo."},
			{Kind: "table", Data: map[string]any{"yo": "hable"}},
		},
		RequiresVocab:   []string{"vocab__desear", "vocab__hablar"},
		RequiresGrammar: []string{"lesson__presente"},
	}
	stats := coverage.Stats{UniqueTokens: 10}
	// 2.0 base + 1.5 subjuntiv keyword + 0.5 table + 0.1 unique tokens
	// + 0.04 vocab reqs + 0.3 grammar req
	if got := ScoreLesson(lesson, stats, tab); got != 4.44 {
		t.Errorf("ScoreLesson = %v, want 4.44", got)
	}

	plain := corpus.LessonEntry{ID: "lesson__saludos", Title: "Saludos"}
	if got := ScoreLesson(plain, coverage.Stats{}, tab); got != 2.0 {
		t.Errorf("ScoreLesson(plain) = %v, want 2.0", got)
	}
}

func TestOrderVocabularySortedByDifficultyThenLemma(t *testing.T) {
	t.Parallel()
	vocab := []corpus.VocabularyEntry{
		{ID: "vocab__zorro", Lemma: "zorro"},
		{ID: "vocab__ser", Lemma: "ser"},
		{ID: "vocab__ave", Lemma: "ave"},
	}
	sorted, _, res, err := Order(vocab, nil, nil, tables.Default())
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	// "ser" is on the common list (1.2); the others tie at 1.7 and fall
	// back to lemma order.
	want := []string{"vocab__ser", "vocab__ave", "vocab__zorro"}
	if !reflect.DeepEqual(res.VocabularyOrder, want) {
		t.Errorf("vocabulary order = %v, want %v", res.VocabularyOrder, want)
	}
	if sorted[0].Difficulty != 1.2 {
		t.Errorf("difficulty = %v", sorted[0].Difficulty)
	}
}

func TestOrderResolvesPrerequisiteReferences(t *testing.T) {
	t.Parallel()
	lessons := []corpus.LessonEntry{
		{ID: "lesson__saludos", Title: "Saludos"},
		{ID: "lesson__presente", Title: "Presente"},
		{
			ID:    "lesson__subjuntivo",
			Title: "Subjuntivo",
			RequiresGrammar: []string{
				"lesson__saludos", // already an id
				"Presente",        // title reference
				"PRESENTE",        // case-insensitive duplicate
				"Tema Perdido",    // unresolvable, drops
			},
		},
	}
	_, ordered, res, err := Order(nil, lessons, nil, tables.Default())
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	var target corpus.LessonEntry
	for _, l := range ordered {
		if l.ID == "lesson__subjuntivo" {
			target = l
		}
	}
	want := []string{"lesson__presente", "lesson__saludos"}
	if !reflect.DeepEqual(target.RequiresGrammar, want) {
		t.Errorf("requires_grammar = %v, want %v", target.RequiresGrammar, want)
	}
	if res.LessonOrder[len(res.LessonOrder)-1] != "lesson__subjuntivo" {
		t.Errorf("lesson order = %v, want dependent last", res.LessonOrder)
	}
}

func TestOrderLinksParts(t *testing.T) {
	t.Parallel()
	lessons := []corpus.LessonEntry{
		{ID: "lesson__verbos-parte-2", Title: "Verbos - Parte 2"},
		{ID: "lesson__verbos-part-1", Title: "Verbos Part 1"},
		{ID: "lesson__verbos-parte-3", Title: "Verbos Parte 3"},
	}
	_, ordered, res, err := Order(nil, lessons, nil, tables.Default())
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	byID := map[string]corpus.LessonEntry{}
	for _, l := range ordered {
		byID[l.ID] = l
	}
	if got := byID["lesson__verbos-parte-2"].RequiresGrammar; !reflect.DeepEqual(got, []string{"lesson__verbos-part-1"}) {
		t.Errorf("part 2 requires = %v", got)
	}
	if got := byID["lesson__verbos-parte-3"].RequiresGrammar; !reflect.DeepEqual(got, []string{"lesson__verbos-parte-2"}) {
		t.Errorf("part 3 requires = %v", got)
	}
	want := []string{"lesson__verbos-part-1", "lesson__verbos-parte-2", "lesson__verbos-parte-3"}
	if !reflect.DeepEqual(res.LessonOrder, want) {
		t.Errorf("lesson order = %v, want parts in sequence", res.LessonOrder)
	}
}

func TestOrderCycleFatal(t *testing.T) {
	t.Parallel()
	lessons := []corpus.LessonEntry{
		{ID: "lesson__a", Title: "A", RequiresGrammar: []string{"lesson__b"}},
		{ID: "lesson__b", Title: "B", RequiresGrammar: []string{"lesson__a"}},
	}
	_, _, _, err := Order(nil, lessons, nil, tables.Default())
	if err == nil {
		t.Fatal("Order: want cycle error")
	}
	var ce *dag.CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *dag.CycleError", err)
	}
	if !reflect.DeepEqual(ce.IDs, []string{"lesson__a", "lesson__b"}) {
		t.Errorf("cycle ids = %v", ce.IDs)
	}
}

func TestOrderSelfPrerequisiteFatal(t *testing.T) {
	t.Parallel()
	lessons := []corpus.LessonEntry{
		{ID: "lesson__a", Title: "A", RequiresGrammar: []string{"lesson__a"}},
		{ID: "lesson__b", Title: "B"},
	}
	_, _, _, err := Order(nil, lessons, nil, tables.Default())
	var ce *dag.CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *dag.CycleError", err)
	}
	if !reflect.DeepEqual(ce.IDs, []string{"lesson__a"}) {
		t.Errorf("cycle ids = %v", ce.IDs)
	}
}

func TestPartPatternMatching(t *testing.T) {
	t.Parallel()
	cases := []struct {
		title string
		base  string
		num   string
	}{
		{"Ser y Estar Part 2", "ser y estar", "2"},
		{"Verbos - Parte 3", "verbos", "3"},
		{"Pasado parte 10", "pasado", "10"},
	}
	for _, tc := range cases {
		tc := tc
		m := partRE.FindStringSubmatch(tc.title)
		if m == nil {
			t.Errorf("no match for %q", tc.title)
			continue
		}
		if got := m[2]; got != tc.num {
			t.Errorf("%q: part = %q, want %q", tc.title, got, tc.num)
		}
	}
	if m := partRE.FindStringSubmatch("Participios"); m != nil {
		t.Errorf("Participios matched as a part title: %v", m)
	}
}
