// Package validate checks every canonical entry against the externally
// supplied structural schema documents. Validation never mutates data
// and never fails the stage itself; the orchestrator decides fatality
// from the collected errors.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/papapumpkin/refinery/internal/corpus"
)

// VocabularySchemaFile and LessonSchemaFile are the expected document
// names inside the configured schema directory.
const (
	VocabularySchemaFile = "vocabulary.schema.json"
	LessonSchemaFile     = "lesson.schema.json"
)

// Error is one structural violation found in an entry.
type Error struct {
	EntryType string
	EntryID   string
	Message   string
}

// Schemas holds the two compiled schema documents.
type Schemas struct {
	Vocabulary *jsonschema.Schema
	Lesson     *jsonschema.Schema
}

// Load compiles both schema documents from dir.
func Load(dir string) (*Schemas, error) {
	vocab, err := compile(filepath.Join(dir, VocabularySchemaFile))
	if err != nil {
		return nil, err
	}
	lesson, err := compile(filepath.Join(dir, LessonSchemaFile))
	if err != nil {
		return nil, err
	}
	return &Schemas{Vocabulary: vocab, Lesson: lesson}, nil
}

func compile(path string) (*jsonschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	schema, err := compiler.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", path, err)
	}
	return schema, nil
}

// Entries validates every vocabulary and lesson entry, returning one
// error row per violation.
func (s *Schemas) Entries(vocab []corpus.VocabularyEntry, lessons []corpus.LessonEntry) []Error {
	out := []Error{}
	for _, entry := range vocab {
		out = append(out, validateOne(s.Vocabulary, "vocabulary", entry.ID, entry)...)
	}
	for _, entry := range lessons {
		out = append(out, validateOne(s.Lesson, "lesson", entry.ID, entry)...)
	}
	return out
}

// validateOne round-trips the entry through JSON so the schema sees the
// exact canonical wire shape, then flattens the validator's output tree
// into flat rows.
func validateOne(schema *jsonschema.Schema, entryType, entryID string, entry any) []Error {
	var instance any
	data, err := json.Marshal(entry)
	if err != nil {
		return []Error{{EntryType: entryType, EntryID: entryID, Message: err.Error()}}
	}
	if err := json.Unmarshal(data, &instance); err != nil {
		return []Error{{EntryType: entryType, EntryID: entryID, Message: err.Error()}}
	}

	err = schema.Validate(instance)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Error{{EntryType: entryType, EntryID: entryID, Message: err.Error()}}
	}

	var rows []Error
	for _, unit := range ve.BasicOutput().Errors {
		// The root unit repeats the aggregate message; leaf units carry
		// the actionable detail.
		if unit.KeywordLocation == "" {
			continue
		}
		loc := unit.InstanceLocation
		if loc == "" {
			loc = "<root>"
		}
		rows = append(rows, Error{
			EntryType: entryType,
			EntryID:   entryID,
			Message:   fmt.Sprintf("%s: %s", loc, unit.Error),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, Error{EntryType: entryType, EntryID: entryID, Message: ve.Message})
	}
	return rows
}
