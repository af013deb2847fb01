package ingest

import "strings"

// GenerateNGrams slides a window of n tokens over the input and joins each
// window with a single space. It returns an empty slice when there are fewer
// than n tokens or n is not positive.
func GenerateNGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return []string{}
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

// Unique returns the distinct values of the given slices in first-seen order.
func Unique(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// Cap truncates list to at most n entries.
func Cap(list []string, n int) []string {
	if n >= 0 && len(list) > n {
		return list[:n]
	}
	return list
}
