package ruleset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"retune/internal/model"
)

// Seed file entries deliberately use short field names; they are written by
// hand. Omitted booleans default to enabled/active, an omitted priority to
// 100, and an omitted source to the channel name.
type ruleEntry struct {
	Replacement *string `yaml:"replacement"`
	Enabled     *bool   `yaml:"enabled"`
	Priority    *int    `yaml:"priority"`
	Name        string  `yaml:"name"`
	Pattern     string  `yaml:"pattern"`
	Type        string  `yaml:"type"`
	Tag         string  `yaml:"tag"`
	Source      string  `yaml:"source"`
	Remove      bool    `yaml:"remove"`
}

type rulesDocument struct {
	Rules []ruleEntry `yaml:"rules"`
}

type filterEntry struct {
	Enabled *bool  `yaml:"enabled"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Action  string `yaml:"action"`
	Value   string `yaml:"value"`
}

type filtersDocument struct {
	Filters []filterEntry `yaml:"filters"`
}

type channelEntry struct {
	Active   *bool  `yaml:"active"`
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

type channelsDocument struct {
	Channels []channelEntry `yaml:"channels"`
}

// LoadRules reads extraction rules from a YAML seed file. Every entry is
// validated; the first malformed entry fails the whole load so a typo never
// silently drops a rule.
func LoadRules(path string) ([]model.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var doc rulesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	rules := make([]model.Rule, 0, len(doc.Rules))
	for i, entry := range doc.Rules {
		rule := model.Rule{
			Name:           entry.Name,
			Pattern:        entry.Pattern,
			PatternType:    model.PatternType(entry.Type),
			TagName:        entry.Tag,
			Source:         model.RuleSource(entry.Source),
			Priority:       100,
			RemoveFromName: entry.Remove,
			Enabled:        true,
			Replacement:    entry.Replacement,
		}
		if entry.Source == "" {
			rule.Source = model.SourceChannelName
		}
		if entry.Priority != nil {
			rule.Priority = *entry.Priority
		}
		if entry.Enabled != nil {
			rule.Enabled = *entry.Enabled
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, entry.Name, err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// LoadFilters reads visibility filters from a YAML seed file.
func LoadFilters(path string) ([]model.Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filters file: %w", err)
	}

	var doc filtersDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse filters file: %w", err)
	}
	if len(doc.Filters) == 0 {
		return nil, fmt.Errorf("filters file %s contains no filters", path)
	}

	filters := make([]model.Filter, 0, len(doc.Filters))
	for i, entry := range doc.Filters {
		filter := model.Filter{
			Name:    entry.Name,
			Type:    model.FilterType(entry.Type),
			Action:  model.FilterAction(entry.Action),
			Value:   entry.Value,
			Enabled: true,
		}
		if entry.Enabled != nil {
			filter.Enabled = *entry.Enabled
		}
		if err := filter.Validate(); err != nil {
			return nil, fmt.Errorf("filter %d (%s): %w", i+1, entry.Name, err)
		}
		filters = append(filters, filter)
	}

	return filters, nil
}

// LoadChannels reads a channel catalog snapshot from a YAML seed file.
func LoadChannels(path string) ([]model.Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var doc channelsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse channels file: %w", err)
	}
	if len(doc.Channels) == 0 {
		return nil, fmt.Errorf("channels file %s contains no channels", path)
	}

	channels := make([]model.Channel, 0, len(doc.Channels))
	for i, entry := range doc.Channels {
		channel := model.Channel{
			StreamID:     entry.ID,
			Name:         entry.Name,
			CategoryName: entry.Category,
			IsActive:     true,
		}
		if entry.Active != nil {
			channel.IsActive = *entry.Active
		}
		if err := channel.Validate(); err != nil {
			return nil, fmt.Errorf("channel %d (%s): %w", i+1, entry.Name, err)
		}
		channels = append(channels, channel)
	}

	return channels, nil
}
