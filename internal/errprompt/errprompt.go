// Package errprompt appends operator-written guidance to Snowflake error
// messages before they reach the AI agent. Raw Snowflake errors are often
// a dead end for an agent: "Object 'FOO' does not exist or not authorized"
// does not say whether to re-qualify the name, call list_tables, or give
// up, and "No active warehouse selected" needs a human to resume the
// warehouse. A prompt rule pairs such an error pattern with the next step
// the operator wants the agent to take:
//
//	m, err := errprompt.NewMatcher([]errprompt.Rule{
//	    {Pattern: `(?i)does not exist or not authorized`,
//	     Message: "The object may be hidden. Use list_tables to see what is available."},
//	    {Pattern: `(?i)no active warehouse`,
//	     Message: "Ask the user to configure a warehouse for this server."},
//	})
package errprompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule pairs an error-message pattern with the guidance to append when the
// pattern matches.
type Rule struct {
	Pattern string
	Message string
}

type compiledRule struct {
	pattern *regexp.Regexp
	message string
}

// Matcher holds the compiled rule list. Rules are evaluated in order and
// every match contributes its message, so a Snowflake error that is both a
// timeout and a cancellation collects both prompts.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles the rule patterns. An invalid regex is a config
// error and fails the whole set.
func NewMatcher(rules []Rule) (*Matcher, error) {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("errprompt: invalid regex pattern %q: %v", r.Pattern, err)
		}
		compiled[i] = compiledRule{pattern: re, message: r.Message}
	}
	return &Matcher{rules: compiled}, nil
}

// Match returns the guidance messages of every rule matching errMsg, in
// rule order, joined by newlines. Empty string when nothing matches.
func (m *Matcher) Match(errMsg string) string {
	var matched []string
	for _, rule := range m.rules {
		if rule.pattern.MatchString(errMsg) {
			matched = append(matched, rule.message)
		}
	}
	return strings.Join(matched, "\n")
}

// MatchedPatterns returns the source patterns that matched errMsg, for
// logging which rules fired. Nil when nothing matches.
func (m *Matcher) MatchedPatterns(errMsg string) []string {
	var patterns []string
	for _, rule := range m.rules {
		if rule.pattern.MatchString(errMsg) {
			patterns = append(patterns, rule.pattern.String())
		}
	}
	return patterns
}
