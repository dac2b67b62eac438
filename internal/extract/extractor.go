// Package extract implements the rule-driven tag extraction engine.
//
// An Extractor compiles an ordered rule set once and then evaluates
// channels against it. Matching always runs against the original input
// text; removals edit a working copy of the channel name. The two never
// mix: an earlier rule stripping a span does not stop a later rule from
// matching inside it, and a later rule whose matched text is already gone
// still yields its tag while the removal becomes a no-op.
package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"retune/internal/model"
)

// Diagnostic records a rule the extractor could not apply. Bad rules are
// skipped, never fatal: one malformed pattern must not abort a batch.
type Diagnostic struct {
	Pattern string
	Reason  string
	RuleID  int64
}

// Result is the outcome of extracting tags from one channel.
type Result struct {
	Tags        map[string]struct{}
	CleanedName string
}

// HasTag reports whether the normalized form of name is in the result.
func (r Result) HasTag(name string) bool {
	_, ok := r.Tags[NormalizeTag(name)]
	return ok
}

// SortedTags returns the extracted tags in lexical order.
func (r Result) SortedTags() []string {
	tags := make([]string, 0, len(r.Tags))
	for tag := range r.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

type matcher struct {
	re   *regexp.Regexp
	rule model.Rule
}

// Extractor evaluates channels against a compiled rule set. It is
// immutable after construction and safe for concurrent use.
type Extractor struct {
	matchers    []matcher
	diagnostics []Diagnostic
}

// NewExtractor compiles the enabled rules into an extractor. Rules apply
// in ascending priority order; rules sharing a priority keep their input
// order. Rules that cannot be compiled are dropped and reported through
// Diagnostics.
func NewExtractor(rules []model.Rule) *Extractor {
	e := &Extractor{}

	ordered := make([]model.Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		re, err := compilePattern(rule.Pattern, rule.PatternType)
		if err != nil {
			e.skip(rule, err.Error())
			continue
		}
		if rule.Kind() == model.TagCapture {
			if rule.PatternType != model.PatternRegex {
				e.skip(rule, "capture rules require a regex pattern")
				continue
			}
			if re.NumSubexp() == 0 {
				e.skip(rule, "capture pattern has no capture group")
				continue
			}
		}
		e.matchers = append(e.matchers, matcher{re: re, rule: rule})
	}

	return e
}

// Diagnostics returns the rules skipped during compilation.
func (e *Extractor) Diagnostics() []Diagnostic {
	return e.diagnostics
}

func (e *Extractor) skip(rule model.Rule, reason string) {
	e.diagnostics = append(e.diagnostics, Diagnostic{
		RuleID:  rule.ID,
		Pattern: rule.Pattern,
		Reason:  reason,
	})
	slog.Warn("Skipping unusable extraction rule",
		"rule_id", rule.ID,
		"rule", rule.Name,
		"pattern", rule.Pattern,
		"reason", reason)
}

// compilePattern turns a rule pattern into a case-insensitive regex. The
// non-regex pattern types are quoted and anchored; regex patterns are
// compiled as written.
func compilePattern(pattern string, patternType model.PatternType) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	switch patternType {
	case model.PatternPrefix:
		return regexp.Compile(`(?i)^` + regexp.QuoteMeta(pattern))
	case model.PatternSuffix:
		return regexp.Compile(`(?i)` + regexp.QuoteMeta(pattern) + `$`)
	case model.PatternContains:
		return regexp.Compile(`(?i)` + regexp.QuoteMeta(pattern))
	case model.PatternRegex:
		return regexp.Compile(`(?i)` + pattern)
	default:
		return nil, fmt.Errorf("unknown pattern type %q", patternType)
	}
}

// searchText is one candidate input for a rule, tagged with whether it is
// the channel name. Category matches never mutate the working name.
type searchText struct {
	text        string
	fromChannel bool
}

// Extract runs one forward pass of the rule set over a channel. Every rule
// is evaluated against the original channel and category names exactly as
// stored; only the returned CleanedName reflects removals.
func (e *Extractor) Extract(channelName, categoryName string) Result {
	working := channelName
	tags := make(map[string]struct{})

	for _, m := range e.matchers {
		for _, src := range searchTexts(m.rule.Source, channelName, categoryName) {
			if src.text == "" {
				continue
			}
			groups := m.re.FindStringSubmatch(src.text)
			if groups == nil {
				continue
			}
			working = applyRule(&m.rule, groups, src.fromChannel, channelName, working, tags)
			break
		}
	}

	return Result{Tags: tags, CleanedName: finalizeName(working)}
}

func searchTexts(source model.RuleSource, channelName, categoryName string) []searchText {
	switch source {
	case model.SourceChannelName:
		return []searchText{{text: channelName, fromChannel: true}}
	case model.SourceCategoryName:
		return []searchText{{text: categoryName}}
	default:
		return []searchText{
			{text: channelName, fromChannel: true},
			{text: categoryName},
		}
	}
}

// applyRule adds the rule's tag (if any) and applies its removal to the
// working name. groups is the submatch of the rule's regex against the
// text it matched; channelName is the original, unedited channel name.
func applyRule(rule *model.Rule, groups []string, fromChannel bool, channelName, working string, tags map[string]struct{}) string {
	matched := groups[0]
	canRemove := rule.RemoveFromName && fromChannel

	switch rule.Kind() {
	case model.TagCleanup:
		if canRemove && matched != "" {
			working = stripMatch(working, matched, rule.Replacement)
		}

	case model.TagLocation:
		working = extractDelimited(bracketSegment, channelName, working, canRemove, tags)

	case model.TagCallsign:
		working = extractDelimited(parenSegment, channelName, working, canRemove, tags)

	case model.TagCapture:
		captured := groups[1]
		if tag := NormalizeTag(captured); tag != "" {
			tags[tag] = struct{}{}
		}
		if canRemove && matched != "" {
			working = stripMatch(working, matched, rule.Replacement)
		}

	default:
		if tag := NormalizeTag(rule.TagName); tag != "" {
			tags[tag] = struct{}{}
		}
		if canRemove && matched != "" {
			working = stripMatch(working, matched, rule.Replacement)
		}
	}

	return working
}

var (
	bracketSegment = regexp.MustCompile(`\[([^\]]+)\]`)
	parenSegment   = regexp.MustCompile(`\(([^)]+)\)`)
)

// extractDelimited pulls the content of the leftmost delimited segment of
// the channel name as a tag. Removal strips the whole segment, delimiters
// included, from the working name.
func extractDelimited(segment *regexp.Regexp, channelName, working string, remove bool, tags map[string]struct{}) string {
	groups := segment.FindStringSubmatch(channelName)
	if groups == nil {
		return working
	}
	if tag := NormalizeTag(groups[1]); tag != "" {
		tags[tag] = struct{}{}
	}
	if remove {
		working = stripMatch(working, groups[0], nil)
	}
	return working
}

// stripMatch removes the first occurrence of matched from s, substituting
// replacement when one is configured. The exact-match fast path covers the
// usual case; the fold fallback handles matches whose casing differs from
// the working name. A span an earlier rule already consumed is left alone.
func stripMatch(s, matched string, replacement *string) string {
	if s == "" || matched == "" {
		return s
	}

	repl := ""
	if replacement != nil {
		repl = *replacement
	}

	if i := strings.Index(s, matched); i >= 0 {
		return collapseSpaces(s[:i] + repl + s[i+len(matched):])
	}

	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(matched))
	if err != nil {
		return s
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return collapseSpaces(s[:loc[0]] + repl + s[loc[1]:])
}

var spaceRun = regexp.MustCompile(`\s+`)

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

var (
	leadingSeparators  = regexp.MustCompile(`^[:\-|•]+\s*`)
	trailingSeparators = regexp.MustCompile(`\s*[:\-|•]+$`)
	emptyPairs         = regexp.MustCompile(`\(\s*\)|\[\s*\]|\{\s*\}`)
)

// finalizeName tidies what the removals left behind: orphaned separator
// runs at either end, repeated whitespace, and empty delimiter pairs.
func finalizeName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.TrimSpace(name)
	name = leadingSeparators.ReplaceAllString(name, "")
	name = trailingSeparators.ReplaceAllString(name, "")
	name = spaceRun.ReplaceAllString(name, " ")
	name = emptyPairs.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
