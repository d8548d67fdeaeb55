// Package loader discovers structured-text corpus files under an input
// root, parses them tolerantly (applying a repair ladder to near-valid
// JSON), and yields normalized raw records plus rejects for anything that
// stays unparseable. A reject never aborts the batch.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/refinery/internal/corpus"
)

// Result is the loader's primary output plus its diagnostic side channel.
type Result struct {
	Records []corpus.RawRecord
	Rejects []corpus.Reject
}

var extensions = map[string]bool{
	".json":  true,
	".jsonl": true,
	".yaml":  true,
	".yml":   true,
}

// Load scans root's "lessons" and "vocabulary" subdirectories (plus the
// optional top-level lessons.json/.jsonl and vocabulary.json/.jsonl) and
// parses every candidate file. Files parse concurrently, bounded by
// workers, but records are handed back in a stable input-path order so
// downstream first-record-wins rules stay deterministic.
func Load(ctx context.Context, root string, workers int) (Result, error) {
	if workers < 1 {
		workers = 1
	}

	type job struct {
		path   string
		stream corpus.Stream
	}
	var jobs []job
	for _, stream := range []corpus.Stream{corpus.StreamLessons, corpus.StreamVocabulary} {
		paths, err := discover(root, stream)
		if err != nil {
			return Result{}, err
		}
		for _, p := range paths {
			jobs = append(jobs, job{path: p, stream: stream})
		}
	}

	results := make([]fileResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = loadFile(j.path, j.stream)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var out Result
	for _, r := range results {
		out.Records = append(out.Records, r.records...)
		out.Rejects = append(out.Rejects, r.rejects...)
	}
	return out, nil
}

// discover returns the sorted, deduplicated candidate paths for one
// stream: everything under root/<stream>/ recursively, plus the direct
// root/<stream>.json and root/<stream>.jsonl files when present.
func discover(root string, stream corpus.Stream) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	dir := filepath.Join(root, string(stream))
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if extensions[strings.ToLower(filepath.Ext(p))] {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	}

	for _, ext := range []string{".json", ".jsonl"} {
		direct := filepath.Join(root, string(stream)+ext)
		if _, err := os.Stat(direct); err == nil {
			add(direct)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

type fileResult struct {
	records []corpus.RawRecord
	rejects []corpus.Reject
}

func loadFile(path string, stream corpus.Stream) (fr fileResult) {
	objects, err := ParseFile(path)
	if err != nil {
		fr.rejects = append(fr.rejects, corpus.Reject{
			SourcePath: path,
			Origin:     stream,
			Error:      err.Error(),
		})
		return fr
	}
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			fr.rejects = append(fr.rejects, corpus.Reject{
				SourcePath: path,
				Origin:     stream,
				Error:      "non-object entry",
			})
			continue
		}
		fr.records = append(fr.records, corpus.RawRecord{
			Data:       cleanMap(m),
			SourcePath: path,
			Origin:     stream,
		})
	}
	return fr
}

// cleanMap recursively snake_cases keys and NFC-normalizes string leaves.
func cleanMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[corpus.SnakeCase(k)] = cleanValue(v)
	}
	return out
}

func cleanValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cleanMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = cleanValue(item)
		}
		return out
	case string:
		return corpus.NormalizeString(tv)
	default:
		return v
	}
}
