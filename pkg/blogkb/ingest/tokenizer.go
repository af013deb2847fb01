package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultStopwords is the fixed stopword set applied to search tokens.
var DefaultStopwords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all",
	"can", "had", "her", "was", "one", "our", "out",
}

// MinTokenLen is the shortest token kept; shorter tokens are dropped.
const MinTokenLen = 3

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// NewDefaultTokenizer returns a tokenizer using DefaultStopwords.
func NewDefaultTokenizer() *Tokenizer {
	return NewTokenizer(DefaultStopwords)
}

// Tokenize lowercases text, treats every non-word rune as a separator and
// returns the remaining words in order. Words shorter than MinTokenLen and
// stopwords are dropped. Duplicates are kept.
func (t *Tokenizer) Tokenize(text string) []string {
	tokens := []string{}
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		if utf8.RuneCountInString(word) < MinTokenLen || t.isStopword(word) {
			return
		}
		tokens = append(tokens, word)
	}

	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// isWordRune accepts Unicode letters and digits, so accented words stay whole.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// IsStopword reports whether word (any case) is filtered by this tokenizer.
func (t *Tokenizer) IsStopword(word string) bool {
	return t.isStopword(strings.ToLower(word))
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}
