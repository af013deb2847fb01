package extract

import "strings"

// Questions generates candidate questions an article can answer: the topic
// templates, one or two about the title, the category templates and up to
// MaxContentQuestions question-shaped phrases lifted from the content.
// Duplicates are dropped and the list is capped at MaxQuestions.
func (e *Extractor) Questions(title, topic, category, content string) []string {
	var qs []string

	for _, tmpl := range e.rules.TopicQuestions {
		qs = append(qs, fill(tmpl, topic))
	}

	if strings.Contains(title, "How") {
		if strings.HasSuffix(title, "?") {
			qs = append(qs, title)
		} else {
			qs = append(qs, title+"?")
		}
	} else {
		qs = append(qs,
			`What does "`+title+`" mean?`,
			`Can you summarize "`+title+`"?`,
		)
	}

	for _, tmpl := range e.rules.CategoryQuestions {
		qs = append(qs, fill(tmpl, category))
	}

	qs = append(qs, questionPattern.FindAllString(content, MaxContentQuestions)...)

	seen := make(map[string]struct{}, len(qs))
	out := []string{}
	for _, q := range qs {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if len(out) == MaxQuestions {
			break
		}
	}
	return out
}

// fill substitutes value into a template's %s verb. Templates without a verb
// are returned unchanged.
func fill(tmpl, value string) string {
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, "%s", value)
}
