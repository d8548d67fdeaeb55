// Package pipeline sequences the repair-through-ordering stages and
// writes the canonical outputs and diagnostic reports. Each stage is a
// pure function over owned collections; the orchestrator decides
// fatality from the strict flag, except prerequisite cycles, which are
// always fatal because no valid order exists.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"

	"github.com/papapumpkin/refinery/internal/classify"
	"github.com/papapumpkin/refinery/internal/corpus"
	"github.com/papapumpkin/refinery/internal/coverage"
	"github.com/papapumpkin/refinery/internal/dedupe"
	"github.com/papapumpkin/refinery/internal/loader"
	"github.com/papapumpkin/refinery/internal/normalize"
	"github.com/papapumpkin/refinery/internal/order"
	"github.com/papapumpkin/refinery/internal/tables"
	"github.com/papapumpkin/refinery/internal/validate"
)

// ErrManualReview is returned in strict mode when any record needs a
// human decision.
var ErrManualReview = errors.New("manual review items remain")

// ErrValidationFailed is returned in strict mode when any entry violates
// its schema.
var ErrValidationFailed = errors.New("schema validation failed")

// Options configures a single batch run.
type Options struct {
	InputDir  string
	OutputDir string
	SchemaDir string
	Strict    bool
	Workers   int
	Tables    *tables.Tables // nil selects the built-in tables
}

// Run executes the full pipeline. Diagnostics are written before any
// fatal return; canonical outputs are written only on success, so a
// failed run never leaves partial output that looks valid.
func Run(ctx context.Context, opts Options) (order.Result, error) {
	t := opts.Tables
	if t == nil {
		t = tables.Default()
	}

	loaded, err := loader.Load(ctx, opts.InputDir, opts.Workers)
	if err != nil {
		return order.Result{}, err
	}
	log.Printf("loaded %d records, %d rejects", len(loaded.Records), len(loaded.Rejects))

	cls := classify.Classify(loaded.Records)
	norm := normalize.Normalize(cls, t)

	diag := diagnostics{
		rejects:   loaded.Rejects,
		manual:    norm.ManualReview,
		crosswalk: cls.Crosswalk,
	}
	if opts.Strict && len(norm.ManualReview) > 0 {
		if err := diag.write(opts.OutputDir); err != nil {
			return order.Result{}, err
		}
		return order.Result{}, fmt.Errorf("%w: %d item(s)", ErrManualReview, len(norm.ManualReview))
	}

	deduped := dedupe.Dedupe(norm.Vocabulary, norm.Lessons)
	diag.dedupLog = deduped.Log
	if n := len(deduped.Log); n > 0 {
		log.Printf("merged %d duplicate record(s)", n)
	}

	cov := coverage.Analyze(deduped.Vocabulary, deduped.Lessons, t)
	diag.coverage = cov.Coverage
	diag.stubs = cov.Stubs
	diag.forwardRefs = cov.ForwardRefs
	if n := len(cov.Stubs); n > 0 {
		log.Printf("synthesized %d stub vocabulary entr(ies)", n)
	}

	vocab, lessons, orders, err := order.Order(cov.Vocabulary, cov.Lessons, cov.Stats, t)
	if err != nil {
		if werr := diag.write(opts.OutputDir); werr != nil {
			return order.Result{}, errors.Join(err, werr)
		}
		return order.Result{}, err
	}

	schemas, err := validate.Load(opts.SchemaDir)
	if err != nil {
		return order.Result{}, err
	}
	diag.validation = schemas.Entries(vocab, lessons)

	if err := diag.write(opts.OutputDir); err != nil {
		return order.Result{}, err
	}
	if opts.Strict && len(diag.validation) > 0 {
		return order.Result{}, fmt.Errorf("%w: %d error(s)", ErrValidationFailed, len(diag.validation))
	}

	if err := writeCanonical(opts.OutputDir, vocab, lessons, orders, cov.FormsMap, cls.Crosswalk); err != nil {
		return order.Result{}, err
	}
	return orders, nil
}

// diagnostics accumulates every side-channel report across stages.
type diagnostics struct {
	rejects     []corpus.Reject
	manual      []corpus.ManualReviewItem
	crosswalk   classify.Crosswalk
	dedupLog    []dedupe.LogRow
	coverage    []coverage.Row
	stubs       []coverage.StubRow
	forwardRefs []coverage.ForwardRef
	validation  []validate.Error
}

// write emits the report files. Reports are always written, even on a
// run that goes on to fail; manual-review and reject files appear only
// when non-empty.
func (d *diagnostics) write(outDir string) error {
	reports := filepath.Join(outDir, "reports")

	coverageRows := make([][]string, len(d.coverage))
	for i, row := range d.coverage {
		coverageRows[i] = []string{
			row.LessonID,
			strconv.Itoa(row.TotalTokens),
			strconv.Itoa(row.KnownTokens),
			strconv.Itoa(row.UnknownTokens),
			strconv.FormatFloat(row.PercentCovered, 'f', 2, 64),
		}
	}
	if err := writeCSV(filepath.Join(reports, "coverage_report.csv"),
		[]string{"lesson_id", "total_tokens", "known_tokens", "unknown_tokens", "percent_covered"},
		coverageRows); err != nil {
		return err
	}

	forwardRows := make([][]string, len(d.forwardRefs))
	for i, ref := range d.forwardRefs {
		forwardRows[i] = []string{ref.LessonID, ref.PrepackID, ref.Lemma}
	}
	if err := writeCSV(filepath.Join(reports, "forward_refs.csv"),
		[]string{"lesson_id", "prepack_id", "lemma"}, forwardRows); err != nil {
		return err
	}

	dedupRows := make([][]string, len(d.dedupLog))
	for i, row := range d.dedupLog {
		dedupRows[i] = []string{row.EntryType, row.PrimaryID, row.MergedID, row.Reason}
	}
	if err := writeCSV(filepath.Join(reports, "dedup_log.csv"),
		[]string{"entry_type", "primary_id", "merged_id", "reason"}, dedupRows); err != nil {
		return err
	}

	stubRows := make([][]string, len(d.stubs))
	for i, row := range d.stubs {
		stubRows[i] = []string{row.LessonID, row.Lemma}
	}
	if err := writeCSV(filepath.Join(reports, "new_stub_vocabulary.csv"),
		[]string{"lesson_id", "lemma"}, stubRows); err != nil {
		return err
	}

	validationRows := make([][]string, len(d.validation))
	for i, row := range d.validation {
		validationRows[i] = []string{row.EntryType, row.EntryID, row.Message}
	}
	if err := writeCSV(filepath.Join(reports, "validation_errors.csv"),
		[]string{"entry_type", "entry_id", "message"}, validationRows); err != nil {
		return err
	}

	if len(d.manual) > 0 {
		path := filepath.Join(outDir, "_manual_review", "manual_review.json")
		if err := writeJSON(path, d.manual); err != nil {
			return err
		}
	}
	if len(d.rejects) > 0 {
		path := filepath.Join(outDir, "_rejects", "_rejects.json")
		if err := writeJSON(path, d.rejects); err != nil {
			return err
		}
	}
	return nil
}

// writeCanonical writes the outputs that represent the repaired corpus
// itself. Lessons are emitted in topological order.
func writeCanonical(outDir string, vocab []corpus.VocabularyEntry, lessons []corpus.LessonEntry, orders order.Result, formsMap map[string]string, crosswalk classify.Crosswalk) error {
	if err := writeJSONL(filepath.Join(outDir, "vocabulary.jsonl"), vocab); err != nil {
		return err
	}

	byID := make(map[string]corpus.LessonEntry, len(lessons))
	for _, lesson := range lessons {
		byID[lesson.ID] = lesson
	}
	ordered := make([]corpus.LessonEntry, 0, len(lessons))
	for _, id := range orders.LessonOrder {
		if lesson, ok := byID[id]; ok {
			ordered = append(ordered, lesson)
		}
	}
	if err := writeJSONL(filepath.Join(outDir, "lessons.jsonl"), ordered); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(outDir, "index_order.json"), orders); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "forms_map.json"), formsMap); err != nil {
		return err
	}
	return writeJSON(filepath.Join(outDir, "crosswalk.json"), crosswalk)
}
