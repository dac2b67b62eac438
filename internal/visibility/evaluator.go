// Package visibility evaluates filter rules into a per-channel boolean.
//
// Enabled filters are grouped by (type, effective action). A group passes
// when any member matches (include groups) or when no member matches
// (exclude groups); a channel is visible only if every group passes. Groups
// with no members contribute no constraint, so zero enabled filters leaves
// every channel visible.
package visibility

import (
	"log/slog"
	"regexp"
	"strings"

	"retune/internal/model"
)

// Diagnostic records a filter the evaluator could not fully compile. The
// filter stays in its group but its member never matches, so a broken
// include pattern hides nothing extra and a broken exclude pattern hides
// nothing at all.
type Diagnostic struct {
	Value    string
	Reason   string
	FilterID int64
}

type member struct {
	re    *regexp.Regexp
	value string
	id    int64
}

type groupKey struct {
	filterType model.FilterType
	action     model.FilterAction
}

type group struct {
	members []member
	key     groupKey
}

// Evaluator applies a compiled filter set to channels. It is immutable
// after construction and safe for concurrent use.
type Evaluator struct {
	groups      []group
	diagnostics []Diagnostic
}

// NewEvaluator groups the enabled filters by type and effective action,
// compiling regex members up front. Filters of an unknown type are dropped
// with a diagnostic instead of silently failing every channel.
func NewEvaluator(filters []model.Filter) *Evaluator {
	e := &Evaluator{}
	index := make(map[groupKey]int)

	for _, f := range filters {
		if !f.Enabled {
			continue
		}

		switch f.Type {
		case model.FilterCategoryWhitelist, model.FilterCategoryBlacklist,
			model.FilterNameContains, model.FilterRegex,
			model.FilterTagInclude, model.FilterTagExclude:
		default:
			e.report(&f, "unknown filter type")
			continue
		}

		m := member{id: f.ID, value: f.Value}
		if f.Type == model.FilterRegex {
			re, err := regexp.Compile(`(?i)` + f.Value)
			if err != nil {
				e.report(&f, err.Error())
			} else {
				m.re = re
			}
		}

		key := groupKey{filterType: f.Type, action: f.EffectiveAction()}
		i, ok := index[key]
		if !ok {
			i = len(e.groups)
			index[key] = i
			e.groups = append(e.groups, group{key: key})
		}
		e.groups[i].members = append(e.groups[i].members, m)
	}

	return e
}

// Diagnostics returns the filters that could not be fully compiled.
func (e *Evaluator) Diagnostics() []Diagnostic {
	return e.diagnostics
}

func (e *Evaluator) report(f *model.Filter, reason string) {
	e.diagnostics = append(e.diagnostics, Diagnostic{
		FilterID: f.ID,
		Value:    f.Value,
		Reason:   reason,
	})
	slog.Warn("Filter cannot be fully applied",
		"filter_id", f.ID,
		"filter", f.Name,
		"type", f.Type,
		"reason", reason)
}

// Visible reports whether a channel with the given category, name, and tag
// set passes every filter group.
func (e *Evaluator) Visible(categoryName, channelName string, tags []string) bool {
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[strings.ToUpper(strings.TrimSpace(tag))] = struct{}{}
	}

	for _, g := range e.groups {
		if !groupPasses(&g, categoryName, channelName, tagSet) {
			return false
		}
	}
	return true
}

func groupPasses(g *group, categoryName, channelName string, tagSet map[string]struct{}) bool {
	anyMatch := false
	for _, m := range g.members {
		if memberMatches(g.key.filterType, &m, categoryName, channelName, tagSet) {
			anyMatch = true
			break
		}
	}
	if g.key.action == model.ActionExclude {
		return !anyMatch
	}
	return anyMatch
}

func memberMatches(filterType model.FilterType, m *member, categoryName, channelName string, tagSet map[string]struct{}) bool {
	switch filterType {
	case model.FilterCategoryWhitelist, model.FilterCategoryBlacklist:
		return strings.EqualFold(categoryName, m.value)
	case model.FilterNameContains:
		return strings.Contains(strings.ToLower(channelName), strings.ToLower(m.value))
	case model.FilterRegex:
		return m.re != nil && m.re.MatchString(channelName)
	case model.FilterTagInclude, model.FilterTagExclude:
		_, ok := tagSet[strings.ToUpper(strings.TrimSpace(m.value))]
		return ok
	default:
		return false
	}
}
