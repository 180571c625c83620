package prompt

import (
	"strings"
)

// OptionDelimiter separates an option id from its details.
const OptionDelimiter = ". "

// Option is one disambiguation candidate. ID is the token exactly as listed
// in the prompt; it is never re-indexed.
type Option struct {
	ID      string
	Details string
}

// SelectionPrompt is a parsed multi-candidate prompt.
type SelectionPrompt struct {
	Intro   string
	Options []Option
}

// ParseSelection parses a selection prompt. ok is false when text does not
// classify as Selection; a prompt without parseable lines yields no options.
func ParseSelection(text string) (SelectionPrompt, bool) {
	if !IsSelection(text) {
		return SelectionPrompt{}, false
	}
	intro, block, _ := SplitSelection(text)
	return SelectionPrompt{
		Intro:   strings.TrimSpace(intro),
		Options: ParseOptions(block),
	}, true
}

// ParseOptions reads newline separated "<id>. <details>" entries. Lines
// without the delimiter, or with an empty id, are dropped.
func ParseOptions(block string) []Option {
	var opts []Option
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		id, details, ok := strings.Cut(line, OptionDelimiter)
		if !ok {
			continue
		}
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		opts = append(opts, Option{ID: id, Details: strings.TrimSpace(details)})
	}
	return opts
}

// IDs returns the option ids in source order.
func (p SelectionPrompt) IDs() []string {
	ids := make([]string, len(p.Options))
	for i, o := range p.Options {
		ids[i] = o.ID
	}
	return ids
}
