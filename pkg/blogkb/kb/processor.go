package kb

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cognicore/blogkb/pkg/blogkb/extract"
	"github.com/cognicore/blogkb/pkg/blogkb/ingest"
	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// Processing limits.
const (
	WordsPerMinute   = 200
	MaxContentTokens = 500
	MaxAllTokens     = 1000
	MaxNGrams        = 200
	NGramSize        = 2
)

// timeLayout matches JavaScript's Date.toISOString.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Processor runs the extractors over one source document at a time. It holds
// no per-document state and is safe for concurrent use.
type Processor struct {
	extractor *extract.Extractor
	tokenizer *ingest.Tokenizer
	now       func() time.Time
}

// NewProcessor creates a processor. Nil arguments select the defaults.
func NewProcessor(ex *extract.Extractor, tok *ingest.Tokenizer) *Processor {
	if ex == nil {
		ex = extract.Default()
	}
	if tok == nil {
		tok = ingest.NewDefaultTokenizer()
	}
	return &Processor{extractor: ex, tokenizer: tok, now: time.Now}
}

// Process builds the first-phase record of doc. A panic inside an extractor
// is returned as an error so the caller can skip the document.
func (p *Processor) Process(doc store.SourceDocument) (ext DocumentExtraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process blog %s: %v", doc.ID, r)
		}
	}()

	// Extractors read the text of HTML articles; the stored content stays
	// as written.
	content := extract.StripMarkup(doc.Content)
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}

	wordCount := len(strings.Fields(content))
	entities := p.extractor.Entities(content, doc.Title, tags)

	titleTokens := p.tokenizer.Tokenize(doc.Title)
	contentTokens := p.tokenizer.Tokenize(content)
	allTokens := ingest.Unique(titleTokens, contentTokens, p.tokenizer.Tokenize(doc.Summary))
	nGrams := ingest.GenerateNGrams(allTokens, NGramSize)

	return DocumentExtraction{
		ID:            doc.ID,
		Title:         doc.Title,
		Summary:       doc.Summary,
		Content:       doc.Content,
		Topic:         doc.Topic,
		TopicCategory: doc.TopicCategory,
		Tags:          tags,
		Author:        Author{Name: doc.AuthorName, Email: doc.AuthorEmail},
		Description:   doc.Description,
		Engagement: Engagement{
			Views:           doc.Views,
			Likes:           doc.Likes,
			PopularityScore: PopularityScore(doc.Views, doc.Likes),
		},
		Timestamps: Timestamps{
			Created: p.timestamp(doc.CreatedAt),
			Updated: p.timestamp(doc.UpdatedAt),
		},
		Extraction: Extraction{
			WordCount:          wordCount,
			ReadingTimeMinutes: ReadingTime(wordCount),
			Sections:           p.extractor.Sections(content),
			KeyPoints:          p.extractor.KeySentences(content, extract.DocumentKeyPoints),
			KeyConcepts:        extract.KeyConcepts(entities),
			Entities:           entities,
			Questions:          p.extractor.Questions(doc.Title, doc.Topic, doc.TopicCategory, content),
			Definitions:        p.extractor.Definitions(content),
			CodeSnippets:       p.extractor.CodeSnippets(content),
			Statistics:         p.extractor.Statistics(content),
			Quotes:             p.extractor.Quotes(content),
		},
		SearchIndex: SearchIndex{
			TitleTokens:   titleTokens,
			ContentTokens: ingest.Cap(contentTokens, MaxContentTokens),
			AllTokens:     ingest.Cap(allTokens, MaxAllTokens),
			NGrams:        ingest.Cap(nGrams, MaxNGrams),
		},
	}, nil
}

func (p *Processor) timestamp(t time.Time) string {
	if t.IsZero() {
		t = p.now()
	}
	return t.UTC().Format(timeLayout)
}

// ReadingTime is whole minutes at WordsPerMinute, rounded up.
func ReadingTime(wordCount int) int {
	return int(math.Ceil(float64(wordCount) / WordsPerMinute))
}

// PopularityScore is views*0.3 + likes*10, rounded to two decimals.
func PopularityScore(views, likes int64) float64 {
	return math.Round((float64(views)*0.3+float64(likes)*10)*100) / 100
}
