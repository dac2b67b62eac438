package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retune/internal/model"
)

func writeSeedFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRules(t *testing.T) {
	t.Run("applies defaults for omitted fields", func(t *testing.T) {
		path := writeSeedFile(t, "rules.yaml", `
rules:
  - name: sports genre
    pattern: SPORT
    type: contains
    tag: SPORTS
`)
		rules, err := LoadRules(path)
		require.NoError(t, err)
		require.Len(t, rules, 1)

		rule := rules[0]
		assert.Equal(t, "sports genre", rule.Name)
		assert.Equal(t, model.PatternContains, rule.PatternType)
		assert.Equal(t, model.SourceChannelName, rule.Source, "source defaults to the channel name")
		assert.Equal(t, 100, rule.Priority, "priority defaults to 100")
		assert.True(t, rule.Enabled, "rules default to enabled")
		assert.False(t, rule.RemoveFromName)
		assert.Nil(t, rule.Replacement)
	})

	t.Run("honors explicit fields", func(t *testing.T) {
		path := writeSeedFile(t, "rules.yaml", `
rules:
  - name: pipe separator
    pattern: "|"
    type: contains
    tag: __CLEANUP__
    source: both
    remove: true
    priority: 5
    replacement: " - "
    enabled: false
`)
		rules, err := LoadRules(path)
		require.NoError(t, err)
		require.Len(t, rules, 1)

		rule := rules[0]
		assert.Equal(t, model.TagNameCleanup, rule.TagName)
		assert.Equal(t, model.SourceBoth, rule.Source)
		assert.Equal(t, 5, rule.Priority)
		assert.True(t, rule.RemoveFromName)
		assert.False(t, rule.Enabled)
		require.NotNil(t, rule.Replacement)
		assert.Equal(t, " - ", *rule.Replacement)
	})

	t.Run("zero priority survives", func(t *testing.T) {
		path := writeSeedFile(t, "rules.yaml", `
rules:
  - name: first
    pattern: X
    type: contains
    tag: X
    priority: 0
`)
		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, 0, rules[0].Priority)
	})

	t.Run("malformed entry names the rule", func(t *testing.T) {
		path := writeSeedFile(t, "rules.yaml", `
rules:
  - name: good
    pattern: A
    type: contains
    tag: A
  - name: broken
    pattern: B
    type: sideways
    tag: B
`)
		_, err := LoadRules(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
		assert.Contains(t, err.Error(), "sideways")
	})

	t.Run("empty document", func(t *testing.T) {
		path := writeSeedFile(t, "rules.yaml", "rules: []\n")
		_, err := LoadRules(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeSeedFile(t, "rules.yaml", "rules: [not: closed\n")
		_, err := LoadRules(path)
		assert.Error(t, err)
	})
}

func TestLoadFilters(t *testing.T) {
	t.Run("loads filters with defaults", func(t *testing.T) {
		path := writeSeedFile(t, "filters.yaml", `
filters:
  - name: keep us
    type: category_whitelist
    value: US
  - name: drop tests
    type: name_contains
    action: exclude
    value: TEST
    enabled: false
`)
		filters, err := LoadFilters(path)
		require.NoError(t, err)
		require.Len(t, filters, 2)

		assert.Equal(t, model.FilterCategoryWhitelist, filters[0].Type)
		assert.True(t, filters[0].Enabled)
		assert.Equal(t, model.ActionInclude, filters[0].EffectiveAction())

		assert.Equal(t, model.ActionExclude, filters[1].Action)
		assert.False(t, filters[1].Enabled)
	})

	t.Run("malformed entry names the filter", func(t *testing.T) {
		path := writeSeedFile(t, "filters.yaml", `
filters:
  - name: bad type
    type: mystery
    value: X
`)
		_, err := LoadFilters(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad type")
	})

	t.Run("empty document", func(t *testing.T) {
		path := writeSeedFile(t, "filters.yaml", "filters: []\n")
		_, err := LoadFilters(path)
		assert.Error(t, err)
	})
}

func TestLoadChannels(t *testing.T) {
	t.Run("loads channels with defaults", func(t *testing.T) {
		path := writeSeedFile(t, "channels.yaml", `
channels:
  - id: "1001"
    name: "US| CNN HD"
    category: News
  - id: "1002"
    name: "Retired Channel"
    active: false
`)
		channels, err := LoadChannels(path)
		require.NoError(t, err)
		require.Len(t, channels, 2)

		assert.Equal(t, "1001", channels[0].StreamID)
		assert.Equal(t, "News", channels[0].CategoryName)
		assert.True(t, channels[0].IsActive, "channels default to active")
		assert.False(t, channels[1].IsActive)
	})

	t.Run("channel without id fails", func(t *testing.T) {
		path := writeSeedFile(t, "channels.yaml", `
channels:
  - name: "No ID"
`)
		_, err := LoadChannels(path)
		assert.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		path := writeSeedFile(t, "channels.yaml", "channels: []\n")
		_, err := LoadChannels(path)
		assert.Error(t, err)
	})
}
