package code

import (
	"regexp"
	"strings"
)

// constantPattern matches an all-caps identifier followed by an assignment.
var constantPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*\s*=`)

// DefaultImportPrefixes are the line prefixes treated as imports.
var DefaultImportPrefixes = []string{"import ", "from "}

// MergeOptions configures a Merger.
type MergeOptions struct {
	// ImportPrefixes lists the prefixes that mark a line as an import.
	ImportPrefixes []string
}

// Merger joins code fragments into one text, dropping blank lines and
// repeated import or constant lines while keeping everything else.
type Merger struct {
	opts MergeOptions
}

// NewMerger creates a Merger. Without options it recognises Python imports.
func NewMerger(optFns ...func(o *MergeOptions)) *Merger {
	opts := MergeOptions{ImportPrefixes: DefaultImportPrefixes}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Merger{opts: opts}
}

// WithImportPrefixes overrides the import prefixes.
func WithImportPrefixes(prefixes ...string) func(o *MergeOptions) {
	return func(o *MergeOptions) { o.ImportPrefixes = prefixes }
}

// Merge processes fragments line by line in input order:
//   - whitespace-only lines are dropped
//   - import lines are kept the first time their exact text is seen
//   - constant lines are deduplicated the same way, in their own set
//   - all other lines are kept verbatim, duplicates included
//
// Fragment N's surviving lines always precede fragment N+1's.
func (m *Merger) Merge(fragments []string) string {
	seenImports := map[string]struct{}{}
	seenConstants := map[string]struct{}{}
	var out []string

	keepOnce := func(seen map[string]struct{}, line string) {
		if _, ok := seen[line]; ok {
			return
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}

	for _, fragment := range fragments {
		for _, line := range strings.Split(fragment, "\n") {
			switch {
			case strings.TrimSpace(line) == "":
				continue
			case m.isImport(line):
				keepOnce(seenImports, line)
			case constantPattern.MatchString(line):
				keepOnce(seenConstants, line)
			default:
				out = append(out, line)
			}
		}
	}

	return strings.Join(out, "\n")
}

func (m *Merger) isImport(line string) bool {
	for _, p := range m.opts.ImportPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Merge merges fragments with the default Merger.
func Merge(fragments []string) string { return NewMerger().Merge(fragments) }
