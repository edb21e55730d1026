// Package cloze generates overlapping-cloze cards from fact lists and
// re-renders their shuffled context deterministically at review time.
package cloze

import (
	"strconv"
	"strings"
)

// Segment is one lexed piece of card front text. Cloze segments carry
// the text between the {{cN:: and }} markers; plain segments carry the
// surrounding text verbatim.
type Segment struct {
	Text  string
	Cloze bool
	Index int // cloze ordinal N; 0 for plain segments
}

// Lex splits front text into plain and cloze segments. The grammar is
// {{cN::content}} with N a decimal ordinal. Malformed markup is not an
// error: anything that does not parse as a cloze marker stays plain
// text, because this runs during render and must never fail a review.
func Lex(s string) []Segment {
	var segs []Segment
	for len(s) > 0 {
		start, length, content, n := matchCloze(s)
		if start < 0 {
			segs = append(segs, Segment{Text: s})
			break
		}
		if start > 0 {
			segs = append(segs, Segment{Text: s[:start]})
		}
		segs = append(segs, Segment{Text: content, Cloze: true, Index: n})
		s = s[start+length:]
	}
	return segs
}

// matchCloze finds the first complete {{cN::content}} marker in s and
// returns its offset, total length, content, and ordinal. The offset is
// -1 when no complete marker exists.
func matchCloze(s string) (start, length int, content string, index int) {
	from := 0
	for {
		i := strings.Index(s[from:], "{{c")
		if i < 0 {
			return -1, 0, "", 0
		}
		i += from

		rest := s[i+len("{{c"):]
		nd := 0
		for nd < len(rest) && rest[nd] >= '0' && rest[nd] <= '9' {
			nd++
		}
		if nd == 0 || !strings.HasPrefix(rest[nd:], "::") {
			from = i + 1
			continue
		}
		n, _ := strconv.Atoi(rest[:nd])
		body := rest[nd+len("::"):]
		end := strings.Index(body, "}}")
		if end < 0 {
			from = i + 1
			continue
		}
		length = len("{{c") + nd + len("::") + end + len("}}")
		return i, length, body[:end], n
	}
}

// RenderCloze formats content as a cloze marker with the given ordinal.
// Lex(RenderCloze(n, c)) yields a single cloze segment; generator and
// render-time parser share this grammar so they cannot drift.
func RenderCloze(index int, content string) string {
	return "{{c" + strconv.Itoa(index) + "::" + content + "}}"
}
