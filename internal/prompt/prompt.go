// Package prompt classifies bot messages and parses the textual conventions
// the scheduling server uses: multi-candidate selection prompts and
// "Name (email)" attendee annotations.
package prompt

import (
	"strings"
)

const (
	// SelectionLead starts every multi-candidate prompt.
	SelectionLead = "Multiple contacts found for"
	// SelectionMarker separates the intro from the option block.
	SelectionMarker = "Please select one or more by number"
	// UsageHint is shown under every selection widget.
	UsageHint = "(e.g., '1', '2', '1 and 2', or 'all')"
)

// Kind is the classification of a bot message.
type Kind int

const (
	Plain Kind = iota
	EmailAnnotated
	Selection
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case EmailAnnotated:
		return "email"
	case Selection:
		return "selection"
	default:
		return "unknown"
	}
}

// Classify decides how a bot message is rendered. Selection wins over
// EmailAnnotated: option lines usually carry emails too.
func Classify(text string) Kind {
	if IsSelection(text) {
		return Selection
	}
	if strings.Contains(text, "@") && hasParenPair(text) {
		return EmailAnnotated
	}
	return Plain
}

// IsSelection reports whether text is a multi-candidate selection prompt.
func IsSelection(text string) bool {
	return strings.Contains(text, SelectionLead) && strings.Contains(text, SelectionMarker)
}

func hasParenPair(text string) bool {
	i := strings.Index(text, "(")
	return i >= 0 && strings.Contains(text[i+1:], ")")
}

// SplitSelection cuts text at the first SelectionMarker. ok is false when
// the marker is absent.
func SplitSelection(text string) (intro, block string, ok bool) {
	return strings.Cut(text, SelectionMarker)
}
