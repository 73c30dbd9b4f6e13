// Package config loads the optional YAML file that extends the
// analyzer's built-in call models and annotation lists.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pravinparker/infer/pkg/starvation"
)

// BlockingEntry declares one extra function the analysis treats as a
// potentially blocking call. Name is the qualified function or method
// name as it appears in reports, for example "net.Dial" or
// "(*database/sql.DB).Query".
type BlockingEntry struct {
	Name        string `yaml:"name"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description"`
}

// Config is the model-table file. The zero value adds nothing to the
// built-in models.
type Config struct {
	// Deduplicate overrides the -deduplicate flag when set in the file.
	Deduplicate *bool `yaml:"deduplicate"`

	// MaxBlockVisits caps how often the fixpoint revisits one basic
	// block before giving up on the procedure. Zero keeps the engine
	// default.
	MaxBlockVisits int `yaml:"max-block-visits"`

	// Call model extensions, by qualified callee name.
	Blocking []BlockingEntry `yaml:"blocking"`
	Strict   []string        `yaml:"strict"`
	UIThread []string        `yaml:"uithread"`
	Skip     []string        `yaml:"skip"`

	// Annotation lists for functions whose source cannot carry a
	// directive comment, by qualified procedure name.
	Lockless    []string `yaml:"lockless"`
	NonBlocking []string `yaml:"nonblocking"`
	MainThread  []string `yaml:"mainthread"`
}

// Load reads and validates the file at path. An empty path yields the
// zero Config; a path that cannot be read is an error, since the user
// asked for that exact file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	for _, b := range cfg.Blocking {
		if b.Name == "" {
			return nil, errors.Errorf("config %s: blocking entry without a name", path)
		}
		if _, err := ParseSeverity(b.Severity); err != nil {
			return nil, errors.Wrapf(err, "config %s: blocking entry %q", path, b.Name)
		}
	}
	return cfg, nil
}

// ParseSeverity maps the file's severity strings onto the analysis
// levels. The empty string means medium, so entries may omit the key.
func ParseSeverity(s string) (starvation.Severity, error) {
	switch s {
	case "", "medium":
		return starvation.SevMedium, nil
	case "low":
		return starvation.SevLow, nil
	case "high":
		return starvation.SevHigh, nil
	}
	return 0, errors.Errorf("unknown severity %q", s)
}
