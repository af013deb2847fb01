package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// htmlTag captures the character before a tag so tags glued to an
	// identifier (List<String>, Vec<T>) can be told apart from markup.
	htmlTag  = regexp.MustCompile(`(^|[^\w])</?([a-zA-Z][a-zA-Z0-9]*)(\s[^<>]*)?/?>`)
	codeSpan = regexp.MustCompile("(?s)```.*?```|`[^`\n]+`")
	codeSlot = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)
)

// HasMarkup reports whether s carries HTML elements outside code spans.
// Only tag names known to the HTML atom table count.
func HasMarkup(s string) bool {
	prose := codeSpan.ReplaceAllString(s, " ")
	for _, m := range htmlTag.FindAllStringSubmatch(prose, -1) {
		if isElement(m[2]) {
			return true
		}
	}
	return false
}

func isElement(name string) bool {
	if name != strings.ToLower(name) {
		return false
	}
	return atom.Lookup([]byte(name)) != 0
}

// StripMarkup reduces HTML to its text. Block elements become line breaks so
// the section splitter still sees paragraph boundaries; headings are rewritten
// as markdown headings. Fenced and inline code pass through verbatim. Input
// without markup is returned unchanged.
func StripMarkup(s string) string {
	if !HasMarkup(s) {
		return s
	}

	var code []string
	masked := codeSpan.ReplaceAllStringFunc(s, func(span string) string {
		code = append(code, span)
		return "\uE000" + strconv.Itoa(len(code)-1) + "\uE001"
	})

	doc, err := html.Parse(strings.NewReader(masked))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.H1:
				buf.WriteString("\n\n# ")
			case atom.H2:
				buf.WriteString("\n\n## ")
			case atom.H3, atom.H4, atom.H5, atom.H6:
				buf.WriteString("\n\n### ")
			case atom.P, atom.Div, atom.Section, atom.Article, atom.Ul, atom.Ol, atom.Pre, atom.Blockquote:
				buf.WriteString("\n\n")
			case atom.Br, atom.Li:
				buf.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isHeading(n.DataAtom) {
			buf.WriteString("\n")
		}
	}
	walk(doc)

	text := codeSlot.ReplaceAllStringFunc(buf.String(), func(slot string) string {
		i, err := strconv.Atoi(codeSlot.FindStringSubmatch(slot)[1])
		if err != nil || i >= len(code) {
			return slot
		}
		return code[i]
	})
	return strings.TrimSpace(collapseBlankLines(text))
}

func isHeading(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

var blankRun = regexp.MustCompile(`\n{3,}`)

func collapseBlankLines(s string) string {
	return blankRun.ReplaceAllString(s, "\n\n")
}
