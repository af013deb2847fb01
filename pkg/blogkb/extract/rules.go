// Package extract holds the pattern extractors that mine a single article for
// key sentences, sections, entities, definitions, code, statistics, quotes and
// candidate questions. Every extractor is a pure function of its input.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Entity types.
const (
	TypeConcept      = "concept"
	TypeTechnology   = "technology"
	TypePerson       = "person"
	TypeOrganization = "organization"
	TypeMethod       = "method"
	TypeTerm         = "term"
)

// TermGroup is a named list of literal terms matched case-insensitively on
// word boundaries.
type TermGroup struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// Rules parameterises the extractors. Zero-valued fields fall back to the
// defaults from DefaultRules.
type Rules struct {
	ImportanceWords   []string    `yaml:"importance_words"`
	DefinitionMarkers []string    `yaml:"definition_markers"`
	TechnologyGroups  []TermGroup `yaml:"technology_groups"`
	ConceptStoplist   []string    `yaml:"concept_stoplist"`
	TopicQuestions    []string    `yaml:"topic_questions"`
	CategoryQuestions []string    `yaml:"category_questions"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() Rules {
	return Rules{
		ImportanceWords: []string{
			"important", "key", "significant", "essential", "critical",
			"fundamental", "primary", "main", "crucial", "notably", "specifically",
			"particularly", "especially", "therefore", "thus", "consequently",
			"demonstrates", "shows", "reveals", "indicates", "suggests", "proves",
		},
		DefinitionMarkers: []string{" is ", " are ", " refers to "},
		TechnologyGroups: []TermGroup{
			{Name: "languages", Terms: []string{
				"AI", "ML", "API", "SDK", "REST", "GraphQL", "SQL", "NoSQL", "HTTP", "HTTPS",
				"JSON", "XML", "HTML", "CSS", "JavaScript", "TypeScript", "Python", "Java",
				"C++", "Ruby", "Go", "Rust", "Swift", "Kotlin",
			}},
			{Name: "web-frameworks", Terms: []string{
				"React", "Angular", "Vue", "Node.js", "Express", "Django", "Flask", "Spring",
				"Laravel", "Rails",
			}},
			{Name: "cloud-devops", Terms: []string{
				"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Terraform", "Jenkins", "GitHub", "GitLab",
			}},
			{Name: "databases", Terms: []string{
				"MongoDB", "PostgreSQL", "MySQL", "Redis", "Elasticsearch", "Kafka", "RabbitMQ",
			}},
			{Name: "ml-stacks", Terms: []string{
				"TensorFlow", "PyTorch", "Keras", "scikit-learn", "pandas", "NumPy", "OpenAI",
				"GPT", "BERT", "Transformer",
			}},
		},
		ConceptStoplist: []string{
			"The", "This", "That", "These", "Those", "When", "Where", "What", "Which",
		},
		TopicQuestions: []string{
			"What is %s?",
			"How does %s work?",
			"Why is %s important?",
			"What are the benefits of %s?",
			"What are the key concepts in %s?",
			"Can you explain %s?",
			"Tell me about %s",
		},
		CategoryQuestions: []string{
			"What are the latest developments in %s?",
			"What should I know about %s?",
		},
	}
}

// withDefaults fills empty fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if len(r.ImportanceWords) == 0 {
		r.ImportanceWords = d.ImportanceWords
	}
	if len(r.DefinitionMarkers) == 0 {
		r.DefinitionMarkers = d.DefinitionMarkers
	}
	if len(r.TechnologyGroups) == 0 {
		r.TechnologyGroups = d.TechnologyGroups
	}
	if len(r.ConceptStoplist) == 0 {
		r.ConceptStoplist = d.ConceptStoplist
	}
	if len(r.TopicQuestions) == 0 {
		r.TopicQuestions = d.TopicQuestions
	}
	if len(r.CategoryQuestions) == 0 {
		r.CategoryQuestions = d.CategoryQuestions
	}
	return r
}

// entityRule pairs a compiled pattern with the entity type it yields.
type entityRule struct {
	name    string
	pattern *regexp.Regexp
	typ     string
}

// compileTermGroup builds one alternation per group. Terms are quoted so
// entries such as "C++" and "Node.js" match literally.
func compileTermGroup(g TermGroup) (*regexp.Regexp, error) {
	if len(g.Terms) == 0 {
		return nil, fmt.Errorf("term group %q is empty", g.Name)
	}
	quoted := make([]string, 0, len(g.Terms))
	for _, term := range g.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(term))
	}
	return regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}
