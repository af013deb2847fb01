// Package kb turns a corpus of blog articles into the knowledge-base
// artifact: per-document extraction, cross-document relationships, taxonomy
// and concept indexes, searchable content and Q&A pairs.
package kb

import "github.com/cognicore/blogkb/pkg/blogkb/extract"

// KnowledgeBase is the root artifact written by a build.
type KnowledgeBase struct {
	Metadata          Metadata            `json:"metadata"`
	Taxonomy          Taxonomy            `json:"taxonomy"`
	Blogs             []ProcessedDocument `json:"blogs"`
	GlobalConcepts    []GlobalConcept     `json:"globalConcepts"`
	SearchableContent SearchableContent   `json:"searchableContent"`
	QAKnowledge       []QAPair            `json:"qaKnowledge"`
}

// Metadata describes a build.
type Metadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	PoweredBy   string `json:"poweredBy"`
	GeneratedAt string `json:"generatedAt"`
	LastUpdated string `json:"lastUpdated"`
	Stats       Stats  `json:"stats"`
}

// Stats are corpus-wide aggregates.
type Stats struct {
	TotalBlogs      int `json:"totalBlogs"`
	TotalWords      int `json:"totalWords"`
	TotalCategories int `json:"totalCategories"`
	TotalTopics     int `json:"totalTopics"`
	TotalConcepts   int `json:"totalConcepts"`
	AvgReadingTime  int `json:"avgReadingTime"`
}

// Taxonomy holds the category list and the inverted indexes. Index values
// are blog IDs in corpus order.
type Taxonomy struct {
	Categories   []Category          `json:"categories"`
	TopicIndex   map[string][]string `json:"topicIndex"`
	TagIndex     map[string][]string `json:"tagIndex"`
	ConceptIndex map[string][]string `json:"conceptIndex"`
}

// Category aggregates the blogs of one topic category.
type Category struct {
	Name        string   `json:"name"`
	BlogCount   int      `json:"blogCount"`
	Topics      []string `json:"topics"`
	Description string   `json:"description"`
}

// GlobalConcept is an entity aggregated across the corpus.
type GlobalConcept struct {
	Name         string   `json:"name"`
	Frequency    int      `json:"frequency"`
	RelatedBlogs []string `json:"relatedBlogs"`
	Description  string   `json:"description"`
}

// SearchableContent flattens the corpus for client-side search.
type SearchableContent struct {
	AllTitles     []string `json:"allTitles"`
	AllSummaries  []string `json:"allSummaries"`
	AllKeyPoints  []string `json:"allKeyPoints"`
	AllQuestions  []string `json:"allQuestions"`
	FullTextIndex string   `json:"fullTextIndex"`
}

// QAPair is a question with a canned answer. Confidence is fixed per rule.
type QAPair struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	SourceBlogs []string `json:"sourceBlogs"`
	Confidence  float64  `json:"confidence"`
}

// ProcessedDocument is one blog after both build phases.
type ProcessedDocument struct {
	DocumentExtraction
	Relationships DocumentRelationships `json:"relationships"`
}

// DocumentExtraction is everything derived from a single source document.
// It is produced by Processor.Process and not modified afterwards.
type DocumentExtraction struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Summary       string      `json:"summary"`
	Content       string      `json:"content"`
	Topic         string      `json:"topic"`
	TopicCategory string      `json:"topicCategory"`
	Tags          []string    `json:"tags"`
	Author        Author      `json:"author"`
	Description   string      `json:"description"`
	Engagement    Engagement  `json:"engagement"`
	Timestamps    Timestamps  `json:"timestamps"`
	Extraction    Extraction  `json:"extraction"`
	SearchIndex   SearchIndex `json:"searchIndex"`
}

// DocumentRelationships is the corpus-dependent part of a document, built by
// BuildRelationships once every document has been processed.
type DocumentRelationships struct {
	RelatedTopics     []string `json:"relatedTopics"`
	RelatedCategories []string `json:"relatedCategories"`
	SemanticTags      []string `json:"semanticTags"`
}

// Author of a blog.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Engagement counters and the derived popularity score.
type Engagement struct {
	Views           int64   `json:"views"`
	Likes           int64   `json:"likes"`
	PopularityScore float64 `json:"popularityScore"`
}

// Timestamps in RFC 3339.
type Timestamps struct {
	Created string `json:"created"`
	Updated string `json:"updated"`
}

// Extraction is the output of the pattern extractors for one document.
type Extraction struct {
	WordCount          int               `json:"wordCount"`
	ReadingTimeMinutes int               `json:"readingTimeMinutes"`
	Sections           []extract.Section `json:"sections"`
	KeyPoints          []string          `json:"keyPoints"`
	KeyConcepts        []string          `json:"keyConcepts"`
	Entities           []extract.Entity  `json:"entities"`
	Questions          []string          `json:"questions"`
	Definitions        map[string]string `json:"definitions"`
	CodeSnippets       []string          `json:"codeSnippets"`
	Statistics         []string          `json:"statistics"`
	Quotes             []string          `json:"quotes"`
}

// SearchIndex is a document's local token index. Every list is capped.
type SearchIndex struct {
	TitleTokens   []string `json:"titleTokens"`
	ContentTokens []string `json:"contentTokens"`
	AllTokens     []string `json:"allTokens"`
	NGrams        []string `json:"nGrams"`
}

// Compose joins the two build phases of a document.
func Compose(ext DocumentExtraction, rel DocumentRelationships) ProcessedDocument {
	return ProcessedDocument{DocumentExtraction: ext, Relationships: rel}
}
