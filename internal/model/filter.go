package model

import (
	"fmt"
	"strings"
	"time"
)

// FilterType selects which channel attribute a visibility filter inspects.
type FilterType string

// Filter type constants.
const (
	FilterCategoryWhitelist FilterType = "category_whitelist"
	FilterCategoryBlacklist FilterType = "category_blacklist"
	FilterNameContains      FilterType = "name_contains"
	FilterRegex             FilterType = "regex"
	FilterTagInclude        FilterType = "tag_include"
	FilterTagExclude        FilterType = "tag_exclude"
)

// FilterAction determines whether a matching filter keeps or hides a channel.
type FilterAction string

// Filter action constants.
const (
	ActionInclude FilterAction = "include"
	ActionExclude FilterAction = "exclude"
)

// Filter represents one visibility filter. Filters of the same type and
// effective action form a group: include groups are satisfied by any
// member, exclude groups by no member, and a channel must satisfy every
// group to stay visible.
type Filter struct {
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Name      string       `json:"name"`
	Type      FilterType   `json:"filter_type"`
	Action    FilterAction `json:"filter_action,omitempty"`
	Value     string       `json:"value"`
	ID        int64        `json:"id"`
	ScopeID   int64        `json:"scope_id"`
	Enabled   bool         `json:"enabled"`
}

// EffectiveAction resolves the filter's include or exclude sense. Whitelist,
// blacklist, and the tag filter types imply their action; name_contains and
// regex filters use the configured action, defaulting to include.
func (f *Filter) EffectiveAction() FilterAction {
	switch f.Type {
	case FilterCategoryWhitelist, FilterTagInclude:
		return ActionInclude
	case FilterCategoryBlacklist, FilterTagExclude:
		return ActionExclude
	default:
		if f.Action == ActionExclude {
			return ActionExclude
		}
		return ActionInclude
	}
}

// Validate checks that the filter is well-formed enough to store.
func (f *Filter) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("filter name cannot be empty")
	}
	if f.Value == "" {
		return fmt.Errorf("filter value cannot be empty")
	}
	switch f.Type {
	case FilterCategoryWhitelist, FilterCategoryBlacklist, FilterNameContains,
		FilterRegex, FilterTagInclude, FilterTagExclude:
	default:
		return fmt.Errorf("invalid filter type: %q", f.Type)
	}
	switch f.Action {
	case "", ActionInclude, ActionExclude:
	default:
		return fmt.Errorf("invalid filter action: %q", f.Action)
	}
	return nil
}
