package kb

import (
	"github.com/cognicore/blogkb/pkg/blogkb/extract"
	"github.com/cognicore/blogkb/pkg/blogkb/ingest"
)

// Relationship limits.
const (
	MaxRelatedTopics     = 10
	MaxRelatedCategories = 5
	MinSharedConcepts    = 2
	SemanticConcepts     = 5
)

// BuildRelationships computes the corpus-dependent fields of every document.
// The result is parallel to docs.
//
// relatedCategories compares every pair of documents, so the pass is
// quadratic in corpus size.
func BuildRelationships(docs []DocumentExtraction) []DocumentRelationships {
	byCategory := make(map[string][]int)
	concepts := make([]map[string]struct{}, len(docs))
	for i, d := range docs {
		byCategory[d.TopicCategory] = append(byCategory[d.TopicCategory], i)
		set := make(map[string]struct{}, len(d.Extraction.KeyConcepts))
		for _, c := range d.Extraction.KeyConcepts {
			set[extract.EntityKey(c)] = struct{}{}
		}
		concepts[i] = set
	}

	out := make([]DocumentRelationships, len(docs))
	for i, d := range docs {
		var topics []string
		for _, j := range byCategory[d.TopicCategory] {
			if j == i || docs[j].Topic == "" {
				continue
			}
			topics = append(topics, docs[j].Topic)
		}

		var categories []string
		for j, other := range docs {
			if other.TopicCategory == d.TopicCategory {
				continue
			}
			if sharedCount(concepts[i], concepts[j]) >= MinSharedConcepts {
				categories = append(categories, other.TopicCategory)
			}
		}

		out[i] = DocumentRelationships{
			RelatedTopics:     ingest.Cap(ingest.Unique(topics), MaxRelatedTopics),
			RelatedCategories: ingest.Cap(ingest.Unique(categories), MaxRelatedCategories),
			SemanticTags:      SemanticTags(d),
		}
	}
	return out
}

// SemanticTags is the distinct union of a document's tags, its topic and its
// first few key concepts.
func SemanticTags(d DocumentExtraction) []string {
	var topic []string
	if d.Topic != "" {
		topic = []string{d.Topic}
	}
	return ingest.Unique(d.Tags, topic, ingest.Cap(d.Extraction.KeyConcepts, SemanticConcepts))
}

func sharedCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
