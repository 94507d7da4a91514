// Package code extracts fenced code fragments from model output and merges
// them into a single artifact.
package code

import "regexp"

// fencePattern matches a fenced block. An optional language tag is accepted
// only when it is followed by a line break, so inline fences such as
// "```print(1)```" keep their whole body.
var fencePattern = regexp.MustCompile("(?s)```(?:[A-Za-z0-9_+#.-]+[ \\t]*\\r?\\n|[ \\t]*\\r?\\n?)(.*?)```")

// ExtractBlocks returns the bodies of all fenced blocks in text, in order of
// appearance. The fences and language tags are not part of the result.
func ExtractBlocks(text string) []string {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, m[1])
	}
	return blocks
}

// FirstBlock returns the body of the first fenced block in text.
func FirstBlock(text string) (string, bool) {
	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FencedBlocks returns every fenced block of text including its fences and
// language tag, optionally restricted to a single language. An empty lang
// matches all blocks.
func FencedBlocks(text, lang string) []string {
	var pattern *regexp.Regexp
	if lang == "" {
		pattern = fencePattern
	} else {
		pattern = regexp.MustCompile("(?s)```" + regexp.QuoteMeta(lang) + ".*?```")
	}
	return pattern.FindAllString(text, -1)
}
