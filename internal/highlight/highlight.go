// Package highlight marks occurrences of a search term in rendered terminal
// text without disturbing the escape sequences already in it.
package highlight

import (
	"regexp"
	"strings"
)

var escapeSeq = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

// Marked is rendered text with every hit passed through the marker. Lines
// holds the index of each line with at least one hit, ascending.
type Marked struct {
	Text  string
	Hits  int
	Lines []int
}

// Term compiles a case-insensitive literal matcher. It returns nil for a
// blank term.
func Term(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
}

// Mark wraps each hit of term in rendered with mark. A hit never spans an
// escape sequence, so text split by styling is not matched.
func Mark(rendered, term string, mark func(string) string) Marked {
	re := Term(term)
	if re == nil {
		return Marked{Text: rendered}
	}
	if mark == nil {
		mark = func(s string) string { return s }
	}

	lines := strings.Split(rendered, "\n")
	out := Marked{}
	for i, line := range lines {
		marked, n := markLine(line, re, mark)
		lines[i] = marked
		if n > 0 {
			out.Hits += n
			out.Lines = append(out.Lines, i)
		}
	}
	out.Text = strings.Join(lines, "\n")
	return out
}

func markLine(line string, re *regexp.Regexp, mark func(string) string) (string, int) {
	hits := 0
	replace := func(s string) string {
		hits++
		return mark(s)
	}

	seqs := escapeSeq.FindAllStringIndex(line, -1)
	if len(seqs) == 0 {
		return re.ReplaceAllStringFunc(line, replace), hits
	}

	var b strings.Builder
	prev := 0
	for _, seq := range seqs {
		b.WriteString(re.ReplaceAllStringFunc(line[prev:seq[0]], replace))
		b.WriteString(line[seq[0]:seq[1]])
		prev = seq[1]
	}
	b.WriteString(re.ReplaceAllStringFunc(line[prev:], replace))
	return b.String(), hits
}
