package extract

import (
	"sort"
	"strings"
)

// Definitions captures "Term is/are/refers to/which is/can be defined as ..."
// statements. The definition runs to and includes the next period. A term
// seen more than once keeps the last match found.
func (e *Extractor) Definitions(content string) map[string]string {
	defs := make(map[string]string)
	for _, re := range definitionRules {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			term := strings.TrimSpace(m[1])
			def := strings.TrimSpace(m[2])
			if runeLen(term) <= 2 {
				continue
			}
			if n := runeLen(def); n <= MinDefinitionLen || n >= MaxDefinitionLen {
				continue
			}
			defs[term] = def
		}
	}
	return defs
}

// SortedTerms returns the keys of a definitions map in lexical order.
func SortedTerms(defs map[string]string) []string {
	terms := make([]string, 0, len(defs))
	for t := range defs {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
