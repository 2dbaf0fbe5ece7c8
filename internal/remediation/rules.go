package remediation

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pulsestack/pulse-aiops/internal/models"
)

// RuleEngine layers operator-defined remediation rules on top of the
// built-in action table. A nil engine is valid and contributes nothing.
type RuleEngine struct {
	rules  []Rule
	logger *slog.Logger
}

// Rule is a single operator-defined remediation rule.
type Rule struct {
	ID       string    `yaml:"id"`
	Match    RuleMatch `yaml:"match"`
	Action   string    `yaml:"action"`
	Priority int       `yaml:"priority"`
}

// RuleMatch defines optional attributes for rule matching. Empty fields
// match everything.
type RuleMatch struct {
	MetricContains []string `yaml:"metric_contains"`
	Severity       string   `yaml:"severity"`
}

// RuleConfigFile is the YAML root structure.
type RuleConfigFile struct {
	Rules []Rule `yaml:"rules"`
}

// NewRuleEngine loads rules from the provided path. An empty path or a
// missing file returns a nil engine without error.
func NewRuleEngine(path string, logger *slog.Logger) (*RuleEngine, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleEngine{rules: cfg.Rules, logger: logger}, nil
}

// Candidates returns the candidate actions of every rule matching the
// metric and severity.
func (e *RuleEngine) Candidates(metric string, severity models.Severity) []models.CandidateAction {
	if e == nil {
		return nil
	}

	name := strings.ToLower(metric)
	matched := make([]models.CandidateAction, 0)
	for _, rule := range e.rules {
		if rule.Action == "" {
			continue
		}
		if rule.Match.Severity != "" && !strings.EqualFold(rule.Match.Severity, string(severity)) {
			continue
		}
		if len(rule.Match.MetricContains) > 0 && !metricContains(name, rule.Match.MetricContains) {
			continue
		}
		matched = append(matched, models.CandidateAction{
			Action:   rule.Action,
			Priority: rule.Priority,
			Reason:   "rule " + rule.ID,
		})
	}
	return matched
}

func metricContains(name string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
