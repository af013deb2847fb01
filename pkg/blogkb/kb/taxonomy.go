package kb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/blogkb/pkg/blogkb/extract"
	"github.com/cognicore/blogkb/pkg/blogkb/ingest"
)

const MaxGlobalConcepts = 100

// BuildTaxonomy aggregates categories and the topic, tag and concept indexes
// in one pass. Categories are ordered by blog count, largest first; index
// lists keep corpus order.
func BuildTaxonomy(docs []DocumentExtraction) Taxonomy {
	type catData struct {
		topics []string
		count  int
	}
	var order []string
	cats := make(map[string]*catData)

	tax := Taxonomy{
		Categories:   []Category{},
		TopicIndex:   make(map[string][]string),
		TagIndex:     make(map[string][]string),
		ConceptIndex: make(map[string][]string),
	}

	for _, d := range docs {
		c, ok := cats[d.TopicCategory]
		if !ok {
			c = &catData{}
			cats[d.TopicCategory] = c
			order = append(order, d.TopicCategory)
		}
		c.topics = append(c.topics, d.Topic)
		c.count++

		tax.TopicIndex[d.Topic] = append(tax.TopicIndex[d.Topic], d.ID)
		for _, tag := range d.Tags {
			key := strings.ToLower(tag)
			tax.TagIndex[key] = append(tax.TagIndex[key], d.ID)
		}
		for _, concept := range d.Extraction.KeyConcepts {
			key := extract.EntityKey(concept)
			tax.ConceptIndex[key] = append(tax.ConceptIndex[key], d.ID)
		}
	}

	for _, name := range order {
		c := cats[name]
		topics := ingest.Unique(c.topics)
		tax.Categories = append(tax.Categories, Category{
			Name:        name,
			BlogCount:   c.count,
			Topics:      topics,
			Description: fmt.Sprintf("Articles covering %s and more in %s", strings.Join(ingest.Cap(topics, 3), ", "), name),
		})
	}
	sort.SliceStable(tax.Categories, func(i, j int) bool {
		return tax.Categories[i].BlogCount > tax.Categories[j].BlogCount
	})
	return tax
}

// BuildGlobalConcepts sums entity frequencies across the corpus by
// lowercased name and keeps the MaxGlobalConcepts most frequent.
func BuildGlobalConcepts(docs []DocumentExtraction) []GlobalConcept {
	type acc struct {
		frequency int
		blogs     []string
		seen      map[string]struct{}
	}
	var order []string
	concepts := make(map[string]*acc)

	for _, d := range docs {
		for _, ent := range d.Extraction.Entities {
			key := extract.EntityKey(ent.Name)
			a, ok := concepts[key]
			if !ok {
				a = &acc{seen: make(map[string]struct{})}
				concepts[key] = a
				order = append(order, key)
			}
			a.frequency += ent.Frequency
			if _, dup := a.seen[d.ID]; !dup {
				a.seen[d.ID] = struct{}{}
				a.blogs = append(a.blogs, d.ID)
			}
		}
	}

	out := make([]GlobalConcept, 0, len(order))
	for _, key := range order {
		a := concepts[key]
		out = append(out, GlobalConcept{
			Name:         key,
			Frequency:    a.frequency,
			RelatedBlogs: a.blogs,
			Description:  fmt.Sprintf("Concept appearing in %d blog(s)", len(a.blogs)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	if len(out) > MaxGlobalConcepts {
		out = out[:MaxGlobalConcepts]
	}
	return out
}
