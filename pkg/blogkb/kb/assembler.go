package kb

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cognicore/blogkb/pkg/blogkb/extract"
	"github.com/cognicore/blogkb/pkg/blogkb/ingest"
)

// Q&A confidences, fixed per rule.
const (
	TopicConfidence      = 0.9
	KeyPointsConfidence  = 0.85
	DefinitionConfidence = 0.95

	MaxFullTextLen  = 100000
	QAKeyPointCount = 3
)

// Assembler composes processed documents into a KnowledgeBase.
type Assembler struct {
	Name        string
	Version     string
	Description string
	PoweredBy   string

	now func() time.Time
}

// NewAssembler returns an assembler with the default metadata.
func NewAssembler() *Assembler {
	return &Assembler{
		Name:        "Blog Knowledge Base",
		Version:     "2.0.0",
		Description: "Knowledge base built from the blog collection with full article indexing and search metadata",
		PoweredBy:   "blogkb",
		now:         time.Now,
	}
}

// Assemble builds the artifact. docs keep their order in Blogs.
func (a *Assembler) Assemble(docs []ProcessedDocument) *KnowledgeBase {
	exts := make([]DocumentExtraction, len(docs))
	for i, d := range docs {
		exts[i] = d.DocumentExtraction
	}

	taxonomy := BuildTaxonomy(exts)
	concepts := BuildGlobalConcepts(exts)

	totalWords, totalReading := 0, 0
	for _, d := range exts {
		totalWords += d.Extraction.WordCount
		totalReading += d.Extraction.ReadingTimeMinutes
	}
	avgReading := 0
	if len(exts) > 0 {
		avgReading = int(math.Round(float64(totalReading) / float64(len(exts))))
	}

	now := a.clock()().UTC().Format(timeLayout)
	blogs := docs
	if blogs == nil {
		blogs = []ProcessedDocument{}
	}

	return &KnowledgeBase{
		Metadata: Metadata{
			Name:        a.Name,
			Version:     a.Version,
			Description: a.Description,
			PoweredBy:   a.PoweredBy,
			GeneratedAt: now,
			LastUpdated: now,
			Stats: Stats{
				TotalBlogs:      len(exts),
				TotalWords:      totalWords,
				TotalCategories: len(taxonomy.Categories),
				TotalTopics:     len(taxonomy.TopicIndex),
				TotalConcepts:   len(concepts),
				AvgReadingTime:  avgReading,
			},
		},
		Taxonomy:          taxonomy,
		Blogs:             blogs,
		GlobalConcepts:    concepts,
		SearchableContent: BuildSearchableContent(exts),
		QAKnowledge:       BuildQAKnowledge(exts),
	}
}

func (a *Assembler) clock() func() time.Time {
	if a.now == nil {
		return time.Now
	}
	return a.now
}

// BuildSearchableContent flattens titles, summaries, key points and
// questions, and joins every article into one text blob of at most
// MaxFullTextLen characters.
func BuildSearchableContent(docs []DocumentExtraction) SearchableContent {
	sc := SearchableContent{
		AllTitles:    []string{},
		AllSummaries: []string{},
	}
	var keyPoints, questions []string
	var full strings.Builder

	for i, d := range docs {
		sc.AllTitles = append(sc.AllTitles, d.Title)
		sc.AllSummaries = append(sc.AllSummaries, d.Summary)
		keyPoints = append(keyPoints, d.Extraction.KeyPoints...)
		questions = append(questions, d.Extraction.Questions...)

		if i > 0 {
			full.WriteByte(' ')
		}
		full.WriteString(d.Title + " " + d.Summary + " " + d.Content)
	}

	sc.AllKeyPoints = ingest.Unique(keyPoints)
	sc.AllQuestions = ingest.Unique(questions)
	sc.FullTextIndex = truncateRunes(full.String(), MaxFullTextLen)
	return sc
}

// BuildQAKnowledge emits, per document in order, a topic question, a
// key-points question when there are key points, and one question per
// definition in term order.
func BuildQAKnowledge(docs []DocumentExtraction) []QAPair {
	qa := []QAPair{}
	for _, d := range docs {
		source := []string{d.ID}
		keyPoints := d.Extraction.KeyPoints

		answer := d.Summary
		if answer == "" && len(keyPoints) > 0 {
			answer = keyPoints[0]
		}
		if answer == "" {
			answer = d.Topic + ` is covered in the blog "` + d.Title + `".`
		}
		qa = append(qa, QAPair{
			Question:    "What is " + d.Topic + "?",
			Answer:      answer,
			SourceBlogs: source,
			Confidence:  TopicConfidence,
		})

		if len(keyPoints) > 0 {
			qa = append(qa, QAPair{
				Question:    "What are the key points about " + d.Topic + "?",
				Answer:      strings.Join(ingest.Cap(keyPoints, QAKeyPointCount), " "),
				SourceBlogs: source,
				Confidence:  KeyPointsConfidence,
			})
		}

		for _, term := range extract.SortedTerms(d.Extraction.Definitions) {
			qa = append(qa, QAPair{
				Question:    "What is " + term + "?",
				Answer:      d.Extraction.Definitions[term],
				SourceBlogs: source,
				Confidence:  DefinitionConfidence,
			})
		}
	}
	return qa
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
