package prompt

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"SchedChat/internal/dom"

	"golang.org/x/net/html"
)

// Classes of the spans produced by Annotate.
const (
	ClassContactName  = "contact-name"
	ClassContactEmail = "contact-email"
)

const emailPattern = `[^\s()@]+@[^\s()@]+\.[^\s()@]+`

var (
	// name, gap, email. The name starts at a letter or digit and cannot
	// cross a line or list punctuation.
	annotatedRe = regexp.MustCompile(`([\p{L}\p{N}][^\n,;:()"]*?)([ \t]*)\((` + emailPattern + `)\)`)
	attendeeRe  = regexp.MustCompile(`^(.*?)\s*\((` + emailPattern + `)\)\s*$`)
)

var sentenceBreaks = []string{". ", "! ", "? "}

// Annotate converts text into nodes, wrapping every "Name (user@host.tld)"
// run: the name in span.contact-name, the address in span.contact-email.
// Every other character, the parentheses included, stays as plain text.
func Annotate(text string) []*html.Node {
	var nodes []*html.Node
	plain := func(s string) {
		if s != "" {
			nodes = append(nodes, dom.Text(s))
		}
	}

	last := 0
	for _, m := range annotatedRe.FindAllStringSubmatchIndex(text, -1) {
		// A name never spans sentences: "Done. Jane Doe (jane@x.com)".
		nameStart := m[2]
		if cut := lastSentenceBreak(text[m[2]:m[3]]); cut > 0 {
			nameStart += cut
		}
		// "with Jane Doe (jane@x.com)": only the trailing name words.
		nameStart += nameOffset(text[nameStart:m[3]])

		plain(text[last:nameStart])
		nodes = append(nodes, span(ClassContactName, text[nameStart:m[3]]))
		plain(text[m[4]:m[5]] + "(")
		nodes = append(nodes, span(ClassContactEmail, text[m[6]:m[7]]))
		plain(")")
		last = m[1]
	}
	plain(text[last:])

	if len(nodes) == 0 {
		nodes = append(nodes, dom.Text(text))
	}
	return nodes
}

func span(class, text string) *html.Node {
	return dom.El("span", []dom.Attr{dom.A("class", class)}, dom.Text(text))
}

func lastSentenceBreak(name string) int {
	cut := -1
	for _, b := range sentenceBreaks {
		if i := strings.LastIndex(name, b); i >= 0 && i+len(b) > cut {
			cut = i + len(b)
		}
	}
	return cut
}

// particles may sit between capitalized name words: "Ludwig van Beethoven".
var particles = map[string]bool{
	"van": true, "von": true, "der": true, "den": true,
	"de": true, "del": true, "della": true, "da": true,
	"di": true, "du": true, "la": true, "le": true,
}

type wordSpan struct{ start, end int }

func words(s string) []wordSpan {
	var out []wordSpan
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				out = append(out, wordSpan{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, wordSpan{start, len(s)})
	}
	return out
}

func capitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return !unicode.IsLower(r)
}

// nameOffset returns where the trailing run of name words in s begins. A
// lowercase word ends the run unless it is a particle between two name
// words. Without any capitalized word the last word is the name.
func nameOffset(s string) int {
	ws := words(s)
	if len(ws) == 0 {
		return 0
	}
	word := func(i int) string { return s[ws[i].start:ws[i].end] }

	first := -1
	for i := len(ws) - 1; i >= 0; i-- {
		w := word(i)
		if capitalized(w) {
			first = i
			continue
		}
		if first >= 0 && particles[w] && i > 0 && capitalized(word(i-1)) {
			continue
		}
		break
	}
	if first < 0 {
		first = len(ws) - 1
	}
	return ws[first].start
}

// ParseAttendee splits an attendee entity of the form "Name (user@host.tld)".
// ok is false when value carries no email annotation.
func ParseAttendee(value string) (name, email string, ok bool) {
	m := attendeeRe.FindStringSubmatch(value)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}
