// Package config loads the extraction rules file and the application
// settings.
package config

import (
	"fmt"
	"os"

	"github.com/cognicore/blogkb/pkg/blogkb/extract"
	"github.com/cognicore/blogkb/pkg/blogkb/ingest"
	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"gopkg.in/yaml.v3"
)

// RulesFile is the YAML rules file. Omitted sections keep their defaults.
type RulesFile struct {
	Stopwords     []string `yaml:"stopwords"`
	extract.Rules `yaml:",inline"`
}

// LoadRules loads extraction rules from a YAML file
func LoadRules(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rf RulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("%w: parse rules %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return &rf, nil
}

// Tokenizer builds the search tokenizer. Without stopwords in the file the
// default set applies.
func (rf *RulesFile) Tokenizer() *ingest.Tokenizer {
	if rf == nil || len(rf.Stopwords) == 0 {
		return ingest.NewDefaultTokenizer()
	}
	return ingest.NewTokenizer(rf.Stopwords)
}

// Extractor compiles the rule table.
func (rf *RulesFile) Extractor() (*extract.Extractor, error) {
	if rf == nil {
		return extract.Default(), nil
	}
	ex, err := extract.New(rf.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return ex, nil
}

// Components holds the components built from a rules file
type Components struct {
	Tokenizer *ingest.Tokenizer
	Extractor *extract.Extractor
}

// LoadComponents reads the rules file at path and builds the tokenizer and
// extractor. An empty path yields the defaults.
func LoadComponents(path string) (*Components, error) {
	var rf *RulesFile
	if path != "" {
		var err error
		if rf, err = LoadRules(path); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}
	ex, err := rf.Extractor()
	if err != nil {
		return nil, err
	}
	return &Components{Tokenizer: rf.Tokenizer(), Extractor: ex}, nil
}
