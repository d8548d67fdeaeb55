package normalize

import (
	"strings"

	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/tables"
)

// Lessons canonicalizes lesson-stream records. Records without a
// recoverable title are dropped and reported for manual review.
func Lessons(records []corpus.RawRecord, t *tables.Tables) ([]corpus.LessonEntry, []corpus.ManualReviewItem) {
	entries := []corpus.LessonEntry{}
	manual := []corpus.ManualReviewItem{}

	for _, rec := range records {
		data := rec.Data
		title := firstNonEmpty(data, "title", "name", "lesson", "heading")
		if title == "" {
			manual = append(manual, corpus.ManualReviewItem{
				SourcePath: rec.SourcePath,
				Reason:     "missing title",
			})
			continue
		}
		title = corpus.NormalizeString(title)

		var cefr *string
		if raw := firstNonEmpty(data, "cefr", "cefr_hint", "level"); raw != "" {
			lowered := strings.ToLower(raw)
			for _, level := range t.CEFRLevels {
				if lowered == level {
					cefr = &lowered
					break
				}
			}
		}

		objectives := asStringList(firstPresent(data, "objectives", "goals"))
		if len(objectives) == 0 {
			if obj, ok := data["objective"].(string); ok && obj != "" {
				objectives = []string{corpus.NormalizeString(obj)}
			}
		}

		entries = append(entries, corpus.LessonEntry{
			ID:              corpus.NewLessonID(title),
			Type:            "lesson",
			Title:           title,
			CEFRHint:        cefr,
			Objectives:      objectives,
			ContentBlocks:   contentBlocks(data),
			PracticeRefs:    asStringList(firstPresent(data, "practice_refs", "practice_ids")),
			RequiresGrammar: asStringList(firstPresent(data, "requires_grammar", "prerequisites")),
			RequiresVocab:   []string{},
		})
	}
	return entries, manual
}

// contentBlocks normalizes lesson content into typed blocks. When no
// block list exists, the free-text body fields merge into a single
// explanation block. A top-level examples list always appends an
// examples block.
func contentBlocks(data map[string]any) []corpus.ContentBlock {
	blocks := []corpus.ContentBlock{}

	if existing, ok := data["content_blocks"].([]any); ok && len(existing) > 0 {
		for _, raw := range existing {
			switch b := raw.(type) {
			case map[string]any:
				blocks = append(blocks, typedBlock(b))
			case string:
				blocks = append(blocks, corpus.ContentBlock{Kind: "explanation", Text: b})
			}
		}
	} else {
		texts := []string{}
		for _, key := range []string{"content", "body", "texto"} {
			if s, ok := data[key].(string); ok {
				texts = append(texts, corpus.NormalizeString(s))
			}
		}
		if len(texts) > 0 {
			blocks = append(blocks, corpus.ContentBlock{
				Kind: "explanation",
				Text: strings.Join(texts, "\n\n"),
			})
		}
	}

	if examples, ok := data["examples"].([]any); ok && len(examples) > 0 {
		if items := asExamples(examples); len(items) > 0 {
			blocks = append(blocks, corpus.ContentBlock{Kind: "examples", Items: items})
		}
	}
	return blocks
}

// typedBlock maps a raw block object onto the fixed block shape. Fields
// beyond the typed ones survive in Extra so unknown block kinds keep
// their payloads.
func typedBlock(b map[string]any) corpus.ContentBlock {
	block := corpus.ContentBlock{Kind: "explanation"}
	if kind, ok := b["kind"].(string); ok && kind != "" {
		block.Kind = kind
	}
	for key, value := range b {
		switch key {
		case "kind":
		case "text":
			if s, ok := value.(string); ok {
				block.Text = s
			}
		case "items":
			block.Items = asExamples(value)
		case "data":
			block.Data = value
		default:
			if block.Extra == nil {
				block.Extra = map[string]any{}
			}
			block.Extra[key] = value
		}
	}
	return block
}
