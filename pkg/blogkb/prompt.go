package blogkb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cognicore/blogkb/pkg/blogkb/extract"
	"github.com/cognicore/blogkb/pkg/blogkb/rank"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// PromptKeyPoints is how many key sentences each ranked blog contributes.
const PromptKeyPoints = 5

// PlatformStats summarises the collection for the system prompt.
type PlatformStats struct {
	TotalBlogs    int64
	TopCategories []store.CategoryCount
}

const systemPreamble = `You are the knowledge assistant for this blog collection. Answer questions using the blogs provided below.

FORMATTING RULES:
1. Do not use any markdown formatting (no **, no *, no #, no -, no numbered lists).
2. Do not use bullet points, dashes or special characters for lists.
3. Write in plain sentences and paragraphs. When listing items, write them as a flowing sentence.
4. Use simple punctuation only: periods, commas, colons and question marks.
5. Get straight to the answer without greetings.
6. Draw on all the knowledge provided and give a detailed answer.
7. End every sentence, and the whole response, with a full stop.
`

const synthesisInstructions = `INSTRUCTIONS: Use all of the knowledge above to give a complete and accurate answer. Draw from several blogs where relevant and include specific details, concepts and insights from them. If the question is about a topic the blogs cover, synthesise their content into the best possible answer.`

const noMatchContext = `No blogs directly match this query. Answer from general knowledge, and suggest exploring the blog collection or asking about a more specific topic.`

// BuildContext renders the system prompt: formatting rules, the collection
// summary, then one block per ranked blog with its key sentences and full
// content. With no ranked blogs a fallback sentence replaces the blocks.
func BuildContext(stats PlatformStats, ranked []rank.Scored, ex *extract.Extractor) string {
	if ex == nil {
		ex = extract.Default()
	}
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\nPLATFORM KNOWLEDGE:\n")
	fmt.Fprintf(&b, "Total blogs in collection: %d\n", stats.TotalBlogs)
	fmt.Fprintf(&b, "Top categories: %s\n\n", formatCategories(stats.TopCategories))

	if len(ranked) == 0 {
		b.WriteString(noMatchContext)
		return b.String()
	}

	b.WriteString("RELEVANT KNOWLEDGE FROM THE BLOG COLLECTION:\n\n")
	for i, r := range ranked {
		doc := r.Doc
		tags := "None"
		if len(doc.Tags) > 0 {
			tags = strings.Join(doc.Tags, ", ")
		}
		fmt.Fprintf(&b, "=== BLOG %d: \"%s\" ===\n", i+1, doc.Title)
		fmt.Fprintf(&b, "Category: %s\nTopic: %s\nTags: %s\n\n", doc.TopicCategory, doc.Topic, tags)
		fmt.Fprintf(&b, "Summary: %s\n\n", doc.Summary)
		fmt.Fprintf(&b, "Key Points:\n%s\n\n", strings.Join(ex.KeySentences(doc.Content, PromptKeyPoints), "\n"))
		fmt.Fprintf(&b, "Full Content:\n%s\n\n", doc.Content)
	}
	b.WriteString(synthesisInstructions)
	return b.String()
}

func formatCategories(cats []store.CategoryCount) string {
	if len(cats) == 0 {
		return "Various categories"
	}
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s (%d)", c.Category, c.Count))
	}
	return strings.Join(parts, ", ")
}

// Conversation returns the last limit history messages followed by the
// current user message.
func Conversation(history []Message, message string, limit int) []Message {
	if limit >= 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]Message, 0, len(history)+1)
	out = append(out, history...)
	return append(out, Message{Role: RoleUser, Content: message})
}

var (
	emphasisPattern = regexp.MustCompile(`\*\*|\*`)
	headingPattern  = regexp.MustCompile(`(?m)^#+\s*`)
	bulletPattern   = regexp.MustCompile(`(?m)^[-•]\s*`)
	numberedPattern = regexp.MustCompile(`(?m)^\d+\.\s*`)
)

// CleanAnswer strips the markdown an LLM may still emit (emphasis, headings,
// bullets, numbered-list prefixes and backticks) and makes sure the answer
// ends with terminal punctuation.
func CleanAnswer(text string) string {
	text = emphasisPattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = numberedPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "`", "")
	text = strings.TrimSpace(text)
	if text != "" && !strings.ContainsAny(text[len(text)-1:], ".!?") {
		text += "."
	}
	return text
}
