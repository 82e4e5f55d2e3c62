// Package statuslog turns raw backend status rows into the status history and
// snapshot shown to callers.
package statuslog

import (
	"strings"

	"github.com/lzhlsy00/video-gen/internal/model"
)

// Class is the outcome of classifying a single status message
type Class int

const (
	// Informational messages are shown to callers.
	Informational Class = iota
	// Diagnostic messages are backend log noise and are hidden.
	Diagnostic
)

func (c Class) String() string {
	if c == Diagnostic {
		return "diagnostic"
	}
	return "informational"
}

// Rules is the data-driven denylist behind the classifier. A message is
// diagnostic when it contains any glyph or keyword, or when it contains
// LogLineSeparator together with one of LogLineMarkers.
type Rules struct {
	Glyphs           []string `mapstructure:"glyphs" yaml:"glyphs"`
	Keywords         []string `mapstructure:"keywords" yaml:"keywords"`
	LogLineSeparator string   `mapstructure:"log_line_separator" yaml:"log_line_separator"`
	LogLineMarkers   []string `mapstructure:"log_line_markers" yaml:"log_line_markers"`
}

// DefaultRules returns the rule set the generation backend's log output was
// tuned against.
func DefaultRules() Rules {
	return Rules{
		Glyphs: []string{"❌"},
		Keywords: []string{
			"失败", "警告", "错误",
			"Warning", "Error", "WARNING", "WARN", "ERROR",
			"Syntax error", "keyword argument repeated", "services.script_generator",
			"attempt", "line",
			"Exception", "Traceback",
			"Failed", "failed", "Failure", "failure",
		},
		LogLineSeparator: " - ",
		LogLineMarkers:   []string{"WARNING", "ERROR", "services.", "Syntax error"},
	}
}

// Merge fills empty fields of r from fallback.
func (r Rules) Merge(fallback Rules) Rules {
	if len(r.Glyphs) == 0 {
		r.Glyphs = fallback.Glyphs
	}
	if len(r.Keywords) == 0 {
		r.Keywords = fallback.Keywords
	}
	if r.LogLineSeparator == "" {
		r.LogLineSeparator = fallback.LogLineSeparator
	}
	if len(r.LogLineMarkers) == 0 {
		r.LogLineMarkers = fallback.LogLineMarkers
	}
	return r
}

// Classifier applies a Rules set to status messages.
type Classifier struct {
	rules Rules
}

func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify reports whether message is informational or diagnostic noise.
func (c *Classifier) Classify(message string) Class {
	if containsAny(message, c.rules.Glyphs) || containsAny(message, c.rules.Keywords) {
		return Diagnostic
	}
	if c.looksLikeLogLine(message) {
		return Diagnostic
	}
	return Informational
}

func (c *Classifier) looksLikeLogLine(message string) bool {
	sep := c.rules.LogLineSeparator
	if sep == "" || !strings.Contains(message, sep) {
		return false
	}
	return containsAny(message, c.rules.LogLineMarkers)
}

// Filter returns the informational entries of entries, preserving order.
// The input slice is not modified.
func (c *Classifier) Filter(entries []model.StatusEntry) []model.StatusEntry {
	out := make([]model.StatusEntry, 0, len(entries))
	for _, e := range entries {
		if c.Classify(e.BuildStatus) == Informational {
			out = append(out, e)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
