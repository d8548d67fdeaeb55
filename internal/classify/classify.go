// Package classify routes raw records into the vocabulary or lesson
// stream by scoring each record's key set against two independent cue
// sets. Records that score zero on both sides are ambiguous and go to
// manual review; records that land in a stream other than their origin
// directory are recorded in the crosswalk.
package classify

import (
	"unicode/utf8"

	"github.com/papapumpkin/refinery/internal/corpus"
)

// Label is the tagged classification outcome for one record.
type Label int

const (
	Ambiguous Label = iota
	Vocabulary
	Lesson
)

var vocabCues = []string{
	"lemma", "word", "spanish", "gloss", "meaning",
	"definition_es", "english_gloss", "pos", "part_of_speech",
}

var lessonCues = []string{
	"title", "objectives", "content_blocks", "sections", "steps", "practice_refs",
}

var strongVocabKeys = []string{"lemma", "spanish", "word"}

var lessonBodyKeys = []string{"content", "body", "explanation", "text"}

// Crosswalk records files whose records were reclassified into a stream
// different from the directory they were discovered under.
type Crosswalk struct {
	MovedToVocabulary []string `json:"moved_to_vocabulary"`
	MovedToLessons    []string `json:"moved_to_lessons"`
}

// Result carries the split streams plus classification diagnostics.
type Result struct {
	Vocabulary   []corpus.RawRecord
	Lessons      []corpus.RawRecord
	ManualReview []corpus.ManualReviewItem
	Crosswalk    Crosswalk
}

// Classify scores and routes each record. Ties go to vocabulary; a
// record with zero score on both cue sets is ambiguous.
func Classify(records []corpus.RawRecord) Result {
	res := Result{
		Crosswalk: Crosswalk{
			MovedToVocabulary: []string{},
			MovedToLessons:    []string{},
		},
	}
	for _, rec := range records {
		switch ClassifyOne(rec.Data) {
		case Vocabulary:
			res.Vocabulary = append(res.Vocabulary, rec)
			if rec.Origin != corpus.StreamVocabulary {
				res.Crosswalk.MovedToVocabulary = append(res.Crosswalk.MovedToVocabulary, rec.SourcePath)
			}
		case Lesson:
			res.Lessons = append(res.Lessons, rec)
			if rec.Origin != corpus.StreamLessons {
				res.Crosswalk.MovedToLessons = append(res.Crosswalk.MovedToLessons, rec.SourcePath)
			}
		default:
			res.ManualReview = append(res.ManualReview, corpus.ManualReviewItem{
				SourcePath: rec.SourcePath,
				Reason:     "ambiguous",
				Origin:     rec.Origin,
			})
		}
	}
	return res
}

// ClassifyOne scores a single record's data against both cue sets.
func ClassifyOne(data map[string]any) Label {
	vs := scoreVocabulary(data)
	ls := scoreLesson(data)
	switch {
	case vs == 0 && ls == 0:
		return Ambiguous
	case vs >= ls:
		return Vocabulary
	default:
		return Lesson
	}
}

func scoreVocabulary(data map[string]any) int {
	score := 0
	for _, cue := range vocabCues {
		if _, ok := data[cue]; ok {
			score += 2
		}
	}
	for _, key := range strongVocabKeys {
		if _, ok := data[key]; ok {
			score += 3
			break
		}
	}
	// A short definition is a strong vocabulary signal; long prose reads
	// more like lesson content.
	if def, ok := data["definition_es"].(string); ok && utf8.RuneCountInString(def) < 200 {
		score++
	}
	return score
}

func scoreLesson(data map[string]any) int {
	score := 0
	for _, cue := range lessonCues {
		if _, ok := data[cue]; ok {
			score += 2
		}
	}
	if _, ok := data["title"].(string); ok {
		score += 3
	}
	if blocks, ok := data["content_blocks"].([]any); ok && len(blocks) > 0 {
		score += 2
	}
	bodyLen := 0
	for _, key := range lessonBodyKeys {
		if s, ok := data[key].(string); ok {
			if bodyLen > 0 {
				bodyLen++ // joining space
			}
			bodyLen += utf8.RuneCountInString(s)
		}
	}
	if bodyLen > 160 {
		score++
	}
	return score
}
