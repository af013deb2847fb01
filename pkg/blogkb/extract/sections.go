package extract

import "strings"

// Section is one heading-delimited slice of an article.
type Section struct {
	Heading   string   `json:"heading"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"keyPoints"`
}

// Sections splits content at markdown headings (#, ## or ### at line start)
// and at blank lines followed by a capitalised line. A chunk's heading is its
// marker line, or a short capitalised first line, or IntroductionHeading.
// Chunks with a body of MinSectionBodyLen characters or fewer are dropped.
//
// When the content carries no heading of either kind, or no chunk survives,
// a single MainContentHeading section spanning the whole content is returned.
func (e *Extractor) Sections(content string) []Section {
	var (
		sections []Section
		headed   bool
	)

	for _, chunk := range splitChunks(content) {
		lines := strings.Split(strings.TrimSpace(chunk), "\n")
		first := strings.TrimSpace(lines[0])

		heading := IntroductionHeading
		bodyStart := 0
		switch {
		case strings.HasPrefix(first, "#"):
			heading = strings.TrimSpace(headingPrefix.ReplaceAllString(first, ""))
			bodyStart = 1
			headed = true
		case runeLen(first) < MaxInferredHeading && startsWithUpper(first):
			heading = first
			bodyStart = 1
			headed = true
		}

		body := strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
		if runeLen(body) <= MinSectionBodyLen {
			continue
		}
		sections = append(sections, Section{
			Heading:   heading,
			Content:   body,
			KeyPoints: e.KeySentences(body, SectionKeyPoints),
		})
	}

	if !headed || len(sections) == 0 {
		return []Section{{
			Heading:   MainContentHeading,
			Content:   content,
			KeyPoints: e.KeySentences(content, FallbackKeyPoints),
		}}
	}
	return sections
}

func splitChunks(content string) []string {
	var chunks []string
	start := 0
	for _, loc := range sectionBoundary.FindAllStringIndex(content, -1) {
		if loc[0] > start {
			chunks = append(chunks, content[start:loc[0]])
			start = loc[0]
		}
	}
	chunks = append(chunks, content[start:])
	return chunks
}
