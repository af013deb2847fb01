package extract

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences collapses newline runs into a single space and cuts text
// after every '.', '!' or '?' that is followed by whitespace. Pieces are
// trimmed; empty pieces are dropped.
func SplitSentences(text string) []string {
	text = newlineRun.ReplaceAllString(text, " ")

	var out []string
	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i+1:])
		if size == 0 || !unicode.IsSpace(r) {
			continue
		}
		emit(text[start : i+1])
		j := i + 1
		for j < len(text) {
			r, size = utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r) {
				break
			}
			j += size
		}
		start = j
		i = j - 1
	}
	emit(text[start:])

	return out
}

type scoredSentence struct {
	text  string
	score int
}

// KeySentences returns at most max sentences of text ranked by importance.
// Only sentences strictly between MinSentenceLen and MaxSentenceLen
// characters qualify; equal scores keep their original order.
func (e *Extractor) KeySentences(text string, max int) []string {
	var scored []scoredSentence
	for _, s := range SplitSentences(text) {
		n := runeLen(s)
		if n <= MinSentenceLen || n >= MaxSentenceLen {
			continue
		}
		scored = append(scored, scoredSentence{text: s, score: e.ScoreSentence(s)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	out := []string{}
	for i := 0; i < len(scored) && i < max; i++ {
		out = append(out, scored[i].text)
	}
	return out
}

// ScoreSentence is the importance heuristic behind KeySentences: two points
// per importance word present, three for a definition marker, two for a
// statistic and one for sentences longer than 100 characters.
func (e *Extractor) ScoreSentence(sentence string) int {
	score := 0
	l := lower(sentence)

	for _, w := range e.importance {
		if strings.Contains(l, w) {
			score += 2
		}
	}
	for _, marker := range e.markers {
		if strings.Contains(l, marker) {
			score += 3
			break
		}
	}
	if statisticPattern.MatchString(sentence) {
		score += 2
	}
	if runeLen(sentence) > 100 {
		score++
	}
	return score
}
