// Package normalize canonicalizes classified raw records into the fixed
// vocabulary and lesson entry shapes. Free-form enum values map through
// the injected alias tables; records missing their required field (lemma
// or title) drop to manual review.
package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/papapumpkin/refinery/internal/classify"
	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/tables"
)

// Result is the normalizer's output: canonical collections plus the
// manual-review items accumulated so far (classification items included).
type Result struct {
	Vocabulary   []corpus.VocabularyEntry
	Lessons      []corpus.LessonEntry
	ManualReview []corpus.ManualReviewItem
}

// Normalize canonicalizes both streams of a classification result.
func Normalize(cls classify.Result, t *tables.Tables) Result {
	vocab, vocabManual := Vocabulary(cls.Vocabulary, t)
	lessons, lessonManual := Lessons(cls.Lessons, t)

	manual := make([]corpus.ManualReviewItem, 0, len(cls.ManualReview)+len(vocabManual)+len(lessonManual))
	manual = append(manual, cls.ManualReview...)
	manual = append(manual, vocabManual...)
	manual = append(manual, lessonManual...)

	return Result{Vocabulary: vocab, Lessons: lessons, ManualReview: manual}
}

// firstNonEmpty returns the first key whose value is a non-empty string.
func firstNonEmpty(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstPresent returns the first non-nil, non-empty value among keys.
// Empty strings and empty slices fall through to the next alias.
func firstPresent(data map[string]any, keys ...string) any {
	for _, key := range keys {
		switch v := data[key].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		case []any:
			if len(v) > 0 {
				return v
			}
		default:
			return v
		}
	}
	return nil
}

// mapEnum resolves a free-form value through an alias table. Values that
// are already canonical pass through; anything else drops to nil.
func mapEnum(value string, aliases map[string]string) *string {
	if value == "" {
		return nil
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if mapped, ok := aliases[value]; ok {
		return &mapped
	}
	for _, canonical := range aliases {
		if value == canonical {
			return &value
		}
	}
	return nil
}

// asStringList coerces a value to a list of normalized, non-blank
// strings. A bare string splits on semicolons, commas and newlines.
func asStringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []any:
		out := []string{}
		for _, item := range v {
			s, ok := scalarString(item)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			out = append(out, corpus.NormalizeString(s))
		}
		return out
	case string:
		if v == "" {
			return []string{}
		}
		out := []string{}
		for _, part := range strings.FieldsFunc(v, func(r rune) bool {
			return r == ';' || r == ',' || r == '\n'
		}) {
			if strings.TrimSpace(part) == "" {
				continue
			}
			out = append(out, corpus.NormalizeString(part))
		}
		return out
	default:
		return []string{}
	}
}

// scalarString renders a scalar list item as text. Numeric tags and the
// like survive as their printed form; containers and nil do not.
func scalarString(item any) (string, bool) {
	switch v := item.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// asExamples parses example pairs from either structured {es,en} objects
// or delimiter-separated strings, "||" binding tighter than "|".
func asExamples(value any) []corpus.Example {
	if value == nil {
		return []corpus.Example{}
	}
	values, ok := value.([]any)
	if !ok {
		values = []any{value}
	}
	examples := []corpus.Example{}
	for _, item := range values {
		switch v := item.(type) {
		case map[string]any:
			es, _ := v["es"].(string)
			en, _ := v["en"].(string)
			es = corpus.NormalizeString(es)
			en = corpus.NormalizeString(en)
			if es != "" || en != "" {
				examples = append(examples, corpus.Example{ES: es, EN: en})
			}
		case string:
			var es, en string
			if idx := strings.Index(v, "||"); idx >= 0 {
				es, en = v[:idx], v[idx+2:]
			} else if idx := strings.Index(v, "|"); idx >= 0 {
				es, en = v[:idx], v[idx+1:]
			} else {
				es = v
			}
			examples = append(examples, corpus.Example{
				ES: corpus.NormalizeString(es),
				EN: corpus.NormalizeString(en),
			})
		}
	}
	return examples
}

// sortedSet returns the sorted unique non-empty values.
func sortedSet(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := []string{}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
