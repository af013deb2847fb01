package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeFile(t, "rules.yaml", `stopwords:
  - the
  - blog
importance_words:
  - vital
technology_groups:
  - name: editors
    terms: [Vim, Emacs]
topic_questions:
  - "Who wrote about %s?"
`)

	rf, err := LoadRules(path)
	if err != nil {
		t.Fatalf("Failed to load rules: %v", err)
	}
	if len(rf.Stopwords) != 2 {
		t.Errorf("Expected 2 stopwords, got %d", len(rf.Stopwords))
	}
	if len(rf.ImportanceWords) != 1 || rf.ImportanceWords[0] != "vital" {
		t.Errorf("Unexpected importance words %v", rf.ImportanceWords)
	}
	if len(rf.TechnologyGroups) != 1 || rf.TechnologyGroups[0].Name != "editors" {
		t.Errorf("Unexpected technology groups %v", rf.TechnologyGroups)
	}

	ex, err := rf.Extractor()
	if err != nil {
		t.Fatalf("Extractor: %v", err)
	}
	// Omitted sections keep their defaults.
	if len(ex.Rules().ConceptStoplist) == 0 || len(ex.Rules().CategoryQuestions) == 0 {
		t.Error("Missing sections should fall back to defaults")
	}
	entities := ex.Entities("I use vim and Emacs daily, mostly vim.", "", nil)
	if len(entities) == 0 || entities[0].Name != "vim" {
		t.Errorf("Expected vim to be the top entity, got %v", entities)
	}

	tok := rf.Tokenizer()
	if !tok.IsStopword("blog") || tok.IsStopword("and") {
		t.Error("File stopwords should replace the default set")
	}
}

func TestLoadRulesEmptyGroup(t *testing.T) {
	path := writeFile(t, "rules.yaml", `technology_groups:
  - name: empty
    terms: []
`)
	rf, err := LoadRules(path)
	if err != nil {
		t.Fatalf("Failed to load rules: %v", err)
	}
	if _, err := rf.Extractor(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadRulesInvalidYAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", "stopwords: [unclosed")
	if _, err := LoadRules(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadComponentsDefaults(t *testing.T) {
	comp, err := LoadComponents("")
	if err != nil {
		t.Fatalf("LoadComponents: %v", err)
	}
	if !comp.Tokenizer.IsStopword("the") {
		t.Error("Default tokenizer should drop 'the'")
	}
	if comp.Extractor == nil {
		t.Error("Expected default extractor")
	}

	if _, err := LoadComponents(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Missing rules file should fail")
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Store.Driver != DriverMongo || s.Store.Collection != "blogs" {
		t.Errorf("Unexpected store defaults %+v", s.Store)
	}
	if s.Chat.TopK != 6 || s.Chat.HistoryLimit != 8 || s.Chat.TextSearchLimit != 10 || s.Chat.FallbackLimit != 15 {
		t.Errorf("Unexpected chat defaults %+v", s.Chat)
	}
	if s.Chat.ContentWindow != 3000 {
		t.Errorf("ContentWindow = %d", s.Chat.ContentWindow)
	}
	if s.LLM.Timeout != 60*time.Second {
		t.Errorf("LLM timeout = %v", s.LLM.Timeout)
	}
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	path := writeFile(t, "blogkb.yaml", `store:
  driver: sqlite
  path: /tmp/blogs.db
llm:
  model: local-model
  timeout: 5s
chat:
  top_k: 3
`)
	t.Setenv("MONGODB_URI", "mongodb://example:27017/blogs")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BLOGKB_LOG_LEVEL", "debug")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Store.Driver != DriverSQLite || s.Store.Path != "/tmp/blogs.db" {
		t.Errorf("Unexpected store settings %+v", s.Store)
	}
	if s.Store.URI != "mongodb://example:27017/blogs" {
		t.Errorf("MONGODB_URI not honoured: %q", s.Store.URI)
	}
	if s.LLM.APIKey != "sk-test" || s.LLM.Model != "local-model" || s.LLM.Timeout != 5*time.Second {
		t.Errorf("Unexpected llm settings %+v", s.LLM)
	}
	if s.Chat.TopK != 3 || s.Chat.HistoryLimit != 8 {
		t.Errorf("Unexpected chat settings %+v", s.Chat)
	}
	if s.Log.Level != "debug" {
		t.Errorf("BLOGKB_LOG_LEVEL not honoured: %q", s.Log.Level)
	}
}

func TestLoadSettingsInvalid(t *testing.T) {
	path := writeFile(t, "blogkb.yaml", "store:\n  driver: redis\n")
	if _, err := LoadSettings(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
