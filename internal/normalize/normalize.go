// Package normalize shapes raw recognized speech into display text.
//
// Two deterministic steps run in order: punctuation inference and comma
// bulleting. The combined transform is not idempotent (bullet text that
// contains commas would be split again), so callers apply it exactly once
// per recognized utterance.
package normalize

import "strings"

// Bullet prefixes each line of a bulleted list.
const Bullet = "• "

// leadWords open a question when they are the first word of an utterance.
var leadWords = map[string]bool{
	"who": true, "what": true, "when": true, "where": true, "why": true, "how": true,
	"is": true, "are": true, "do": true, "does": true, "did": true,
	"can": true, "could": true, "will": true, "would": true, "should": true,
}

// Normalize punctuates raw and turns comma-separated lists into bullets.
func Normalize(raw string) string {
	text, added := Punctuate(raw)
	items := splitItems(text)
	if len(items) < 2 {
		return text
	}

	// The mark appended by Punctuate belongs to the sentence, not the last item.
	if added != "" {
		last := strings.TrimSpace(strings.TrimSuffix(items[len(items)-1], added))
		if last == "" {
			items = items[:len(items)-1]
		} else {
			items[len(items)-1] = last
		}
		if len(items) < 2 {
			return text
		}
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = Bullet + item
	}
	return strings.Join(lines, "\n")
}

// Punctuate trims raw and ensures it ends in '.', '!' or '?'. It returns the
// mark it appended, or "" when the text already ended in one (or is empty).
func Punctuate(raw string) (string, string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return text, ""
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return text, ""
	}
	if isQuestion(text) {
		return text + "?", "?"
	}
	return text + ".", "."
}

// Bulletize splits text on commas and renders two or more non-empty items as
// a bulleted list. A single item is returned unchanged.
func Bulletize(text string) string {
	items := splitItems(text)
	if len(items) < 2 {
		return text
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = Bullet + item
	}
	return strings.Join(lines, "\n")
}

func isQuestion(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimRight(strings.ToLower(fields[0]), ",;:")
	return leadWords[first]
}

func splitItems(text string) []string {
	parts := strings.Split(text, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
