// Package model defines the core data structures for the retune application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// PatternType selects how a rule's pattern is matched against text.
type PatternType string

// Pattern type constants.
const (
	PatternPrefix   PatternType = "prefix"
	PatternSuffix   PatternType = "suffix"
	PatternContains PatternType = "contains"
	PatternRegex    PatternType = "regex"
)

// RuleSource selects which text a rule searches.
type RuleSource string

// Rule source constants.
const (
	SourceChannelName  RuleSource = "channel_name"
	SourceCategoryName RuleSource = "category_name"
	SourceBoth         RuleSource = "both"
)

// Sentinel tag names that request special extraction behavior instead of
// a literal tag.
const (
	TagNameLocation = "__LOCATION__"
	TagNameCallsign = "__CALLSIGN__"
	TagNameCleanup  = "__CLEANUP__"
	TagNameCapture  = "__CAPTURE__"
)

// TagKind is the closed set of behaviors a rule's tag name can request.
type TagKind int

// Tag kind constants.
const (
	TagPlain TagKind = iota
	TagLocation
	TagCallsign
	TagCleanup
	TagCapture
)

// Rule represents one tag extraction rule. Rules are applied in ascending
// priority order; rules sharing a priority keep their creation order.
type Rule struct {
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Replacement    *string     `json:"replacement,omitempty"`
	Name           string      `json:"name"`
	Pattern        string      `json:"pattern"`
	PatternType    PatternType `json:"pattern_type"`
	TagName        string      `json:"tag_name"`
	Source         RuleSource  `json:"source"`
	ID             int64       `json:"id"`
	ScopeID        int64       `json:"scope_id"`
	Priority       int         `json:"priority"`
	RemoveFromName bool        `json:"remove_from_name"`
	Enabled        bool        `json:"enabled"`
}

// Kind maps the rule's tag name onto its extraction behavior.
func (r *Rule) Kind() TagKind {
	switch r.TagName {
	case TagNameLocation:
		return TagLocation
	case TagNameCallsign:
		return TagCallsign
	case TagNameCleanup:
		return TagCleanup
	case TagNameCapture:
		return TagCapture
	default:
		return TagPlain
	}
}

// Validate checks that the rule is well-formed enough to store. Pattern
// compilation is deferred to the extraction engine, which skips rules it
// cannot compile.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern cannot be empty")
	}
	switch r.PatternType {
	case PatternPrefix, PatternSuffix, PatternContains, PatternRegex:
	default:
		return fmt.Errorf("invalid pattern type: %q", r.PatternType)
	}
	switch r.Source {
	case SourceChannelName, SourceCategoryName, SourceBoth:
	default:
		return fmt.Errorf("invalid rule source: %q", r.Source)
	}
	if r.TagName == "" {
		return fmt.Errorf("rule tag name cannot be empty")
	}
	return nil
}
