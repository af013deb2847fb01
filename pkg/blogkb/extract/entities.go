package extract

import (
	"sort"
	"strings"
)

// Entity is a named thing found in an article.
type Entity struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Frequency int    `json:"frequency"`
}

// EntityKey is the identity of an entity name: trimmed and lowercased.
func EntityKey(name string) string {
	return lower(strings.TrimSpace(name))
}

// entitySet merges entities by EntityKey, remembering first-seen order.
type entitySet struct {
	index map[string]int
	list  []Entity
}

func newEntitySet() *entitySet {
	return &entitySet{index: make(map[string]int)}
}

func (s *entitySet) add(name, typ string) {
	key := EntityKey(name)
	if i, ok := s.index[key]; ok {
		s.list[i].Frequency++
		return
	}
	s.index[key] = len(s.list)
	s.list = append(s.list, Entity{Name: strings.TrimSpace(name), Type: typ, Frequency: 1})
}

func (s *entitySet) addIfAbsent(name, typ string) {
	if _, ok := s.index[EntityKey(name)]; ok {
		return
	}
	s.add(name, typ)
}

// Entities extracts technology names, capitalised multi-word concepts and the
// article's tags from title and content. Names merge case-insensitively; the
// surface form of the first occurrence is kept. The result is ordered by
// frequency, highest first, and capped at MaxEntities.
func (e *Extractor) Entities(content, title string, tags []string) []Entity {
	text := title + " " + content
	set := newEntitySet()

	for _, rule := range e.entityRules {
		for _, m := range rule.pattern.FindAllString(text, -1) {
			set.add(m, rule.typ)
		}
	}

	for _, m := range conceptPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if runeLen(name) <= MinConceptLen || e.conceptStopped(name) {
			continue
		}
		set.add(name, TypeConcept)
	}

	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		set.addIfAbsent(tag, TypeTerm)
	}

	out := set.list
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	if len(out) > MaxEntities {
		out = out[:MaxEntities]
	}
	if out == nil {
		out = []Entity{}
	}
	return out
}

// conceptStopped reports whether a concept candidate opens with a stoplisted
// function word such as "The" or "When".
func (e *Extractor) conceptStopped(name string) bool {
	for _, w := range e.stoplist {
		if strings.HasPrefix(name, w) {
			return true
		}
	}
	return false
}

// KeyConcepts filters entities down to the names of concept entities.
func KeyConcepts(entities []Entity) []string {
	out := []string{}
	for _, ent := range entities {
		if ent.Type == TypeConcept {
			out = append(out, ent.Name)
		}
	}
	return out
}
