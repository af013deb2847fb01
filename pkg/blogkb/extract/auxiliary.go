package extract

import (
	"regexp"
	"strings"
)

var statisticSplit = regexp.MustCompile(`[.!?]+`)

// CodeSnippets returns fenced code blocks with their fences and language tag
// removed, followed by inline code spans longer than MinInlineCodeLen.
func (e *Extractor) CodeSnippets(content string) []string {
	snippets := []string{}
	for _, block := range fencedCodePattern.FindAllString(content, -1) {
		snippets = append(snippets, strings.TrimSpace(fenceMarkerPattern.ReplaceAllString(block, "")))
	}

	prose := fencedCodePattern.ReplaceAllString(content, " ")
	for _, m := range inlineCodePattern.FindAllStringSubmatch(prose, -1) {
		if runeLen(m[1]) > MinInlineCodeLen {
			snippets = append(snippets, m[1])
		}
	}

	if len(snippets) > MaxCodeSnippets {
		snippets = snippets[:MaxCodeSnippets]
	}
	return snippets
}

// Statistics returns sentence fragments that carry a percentage, a
// thousands-grouped number or a scale word.
func (e *Extractor) Statistics(content string) []string {
	stats := []string{}
	for _, piece := range statisticSplit.Split(content, -1) {
		if !statSentencePattern.MatchString(piece) {
			continue
		}
		piece = strings.TrimSpace(piece)
		if n := runeLen(piece); n <= MinStatisticLen || n >= MaxStatisticLen {
			continue
		}
		stats = append(stats, piece)
		if len(stats) == MaxStatistics {
			break
		}
	}
	return stats
}

// Quotes returns double-quoted spans of 20 to 200 characters.
func (e *Extractor) Quotes(content string) []string {
	quotes := []string{}
	for _, m := range quotePattern.FindAllStringSubmatch(content, MaxQuotes) {
		quotes = append(quotes, m[1])
	}
	return quotes
}
