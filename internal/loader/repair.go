package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRE   = regexp.MustCompile(`([{,]\s*)([A-Za-z0-9_]+)(\s*:)`)
)

// errUnparseable is returned when every repair attempt fails.
var errUnparseable = errors.New("unable to parse after repairs")

// ParseFile reads one corpus file and returns its top-level entries.
// JSON files go through the repair ladder; YAML files parse as a single
// document holding either a mapping or a sequence of mappings.
func ParseFile(path string) ([]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(raw)
	default:
		return parseJSON(string(raw))
	}
}

// parseJSON runs the repair ladder: the raw text first, then with
// trailing commas stripped, then with bare keys quoted. Each rung
// attempts a whole-document parse and falls back to line-delimited
// records before moving to the next rung.
func parseJSON(text string) ([]any, error) {
	for _, candidate := range repairCandidates(text) {
		if items, ok := parseCandidate(candidate); ok {
			return items, nil
		}
	}
	return nil, fmt.Errorf("%w (JSON)", errUnparseable)
}

// repairCandidates yields the progressively repaired forms of the text.
// The BOM/CRLF normalization applies to every rung, so it happens first.
func repairCandidates(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	candidates := []string{text}

	noTrailing := trailingCommaRE.ReplaceAllString(text, "$1")
	if noTrailing != text {
		candidates = append(candidates, noTrailing)
	}
	quoted := unquotedKeyRE.ReplaceAllString(noTrailing, `$1"$2"$3`)
	if quoted != noTrailing {
		candidates = append(candidates, quoted)
	}
	return candidates
}

func parseCandidate(candidate string) ([]any, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, true
	}
	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
		if list, ok := parsed.([]any); ok {
			return list, true
		}
		return []any{parsed}, true
	}
	// Line-delimited: every non-blank line must parse on its own.
	var items []any
	for _, line := range strings.Split(candidate, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var item any
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, false
		}
		items = append(items, item)
	}
	return items, true
}

func parseYAML(raw []byte) ([]any, error) {
	var parsed any
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w (YAML): %v", errUnparseable, err)
	}
	if parsed == nil {
		return nil, nil
	}
	if list, ok := parsed.([]any); ok {
		return list, nil
	}
	return []any{parsed}, nil
}
