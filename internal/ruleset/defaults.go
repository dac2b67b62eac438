// Package ruleset supplies extraction rules and visibility filters to the
// rest of the application: a built-in default rule set for common catalog
// naming patterns, and a YAML loader for provider-specific seed files.
package ruleset

import "retune/internal/model"

// DefaultRules returns a starter rule set covering the naming patterns most
// provider catalogs share: country prefixes, quality glyphs, resolution
// markers, genre categories, and bracketed station identifiers. Callers
// assign the scope ID before persisting.
func DefaultRules() []model.Rule {
	return []model.Rule{
		// Country codes as prefixes, pipe or colon separated.
		{Name: "US Pipe Prefix", Pattern: "US|", PatternType: model.PatternPrefix, TagName: "US", Source: model.SourceBoth, RemoveFromName: true, Priority: 10, Enabled: true},
		{Name: "US Colon Prefix", Pattern: `^US:\s*`, PatternType: model.PatternRegex, TagName: "US", Source: model.SourceChannelName, RemoveFromName: true, Priority: 10, Enabled: true},
		{Name: "UK Prefix", Pattern: "UK|", PatternType: model.PatternPrefix, TagName: "UK", Source: model.SourceBoth, RemoveFromName: true, Priority: 10, Enabled: true},
		{Name: "CA Prefix", Pattern: "CA|", PatternType: model.PatternPrefix, TagName: "CA", Source: model.SourceBoth, RemoveFromName: true, Priority: 10, Enabled: true},
		{Name: "GO Colon Prefix", Pattern: `^GO:\s*`, PatternType: model.PatternRegex, TagName: "GO", Source: model.SourceChannelName, RemoveFromName: true, Priority: 10, Enabled: true},

		// Any other two-letter colon prefix becomes a tag via capture.
		{Name: "Two-Letter Colon Prefix", Pattern: `^([A-Z]{2}):\s*`, PatternType: model.PatternRegex, TagName: model.TagNameCapture, Source: model.SourceChannelName, RemoveFromName: true, Priority: 15, Enabled: true},

		// Quality glyphs. The combined superscript forms run before the
		// plain-ASCII markers so they consume their characters whole.
		{Name: "Superscript UHD", Pattern: "ᵁᴴᴰ", PatternType: model.PatternContains, TagName: "UHD", Source: model.SourceBoth, RemoveFromName: true, Priority: 17, Enabled: true},
		{Name: "Superscript HD", Pattern: "ᴴᴰ", PatternType: model.PatternContains, TagName: "HD", Source: model.SourceBoth, RemoveFromName: true, Priority: 18, Enabled: true},
		{Name: "HD/RAW Combined", Pattern: "ᴴᴰ/ᴿᴬᵂ", PatternType: model.PatternContains, TagName: "HD", Source: model.SourceBoth, RemoveFromName: true, Priority: 18, Enabled: true},
		{Name: "RAW Quality", Pattern: "ᴿᴬᵂ", PatternType: model.PatternContains, TagName: "RAW", Source: model.SourceBoth, RemoveFromName: true, Priority: 20, Enabled: true},
		{Name: "60fps", Pattern: "⁶⁰ᶠᵖˢ", PatternType: model.PatternContains, TagName: "60FPS", Source: model.SourceBoth, RemoveFromName: true, Priority: 20, Enabled: true},
		{Name: "4K", Pattern: `\b4K\b`, PatternType: model.PatternRegex, TagName: "4K", Source: model.SourceBoth, RemoveFromName: true, Priority: 20, Enabled: true},
		{Name: "HD Plain", Pattern: `\bHD\b`, PatternType: model.PatternRegex, TagName: "HD", Source: model.SourceBoth, RemoveFromName: true, Priority: 22, Enabled: true},
		{Name: "FHD", Pattern: `\bFHD\b`, PatternType: model.PatternRegex, TagName: "FHD", Source: model.SourceBoth, RemoveFromName: true, Priority: 20, Enabled: true},

		// Resolution numbers fold into the quality tags.
		{Name: "3840P Resolution", Pattern: `\b3840P?\b`, PatternType: model.PatternRegex, TagName: "4K", Source: model.SourceBoth, RemoveFromName: true, Priority: 20, Enabled: true},
		{Name: "2160P Resolution", Pattern: `\b2160P?\b`, PatternType: model.PatternRegex, TagName: "4K", Source: model.SourceBoth, RemoveFromName: true, Priority: 20, Enabled: true},
		{Name: "1080P Resolution", Pattern: `\b1080P?\b`, PatternType: model.PatternRegex, TagName: "FHD", Source: model.SourceBoth, RemoveFromName: true, Priority: 20, Enabled: true},

		// Content packages and genres.
		{Name: "PRIME Prefix", Pattern: "PRIME:", PatternType: model.PatternPrefix, TagName: "PRIME", Source: model.SourceBoth, RemoveFromName: true, Priority: 15, Enabled: true},
		{Name: "SPORT", Pattern: "SPORT", PatternType: model.PatternContains, TagName: "SPORTS", Source: model.SourceCategoryName, RemoveFromName: false, Priority: 30, Enabled: true},
		{Name: "NEWS", Pattern: "NEWS", PatternType: model.PatternContains, TagName: "NEWS", Source: model.SourceCategoryName, RemoveFromName: false, Priority: 30, Enabled: true},
		{Name: "MOVIES", Pattern: "MOVIE", PatternType: model.PatternContains, TagName: "MOVIES", Source: model.SourceCategoryName, RemoveFromName: false, Priority: 30, Enabled: true},

		// Station identifiers run last so earlier rules see the brackets.
		{Name: "Location in Brackets", Pattern: `\[([^\]]+)\]`, PatternType: model.PatternRegex, TagName: model.TagNameLocation, Source: model.SourceChannelName, RemoveFromName: true, Priority: 85, Enabled: true},
		{Name: "Call Sign in Parentheses", Pattern: `\(([^)]+)\)`, PatternType: model.PatternRegex, TagName: model.TagNameCallsign, Source: model.SourceChannelName, RemoveFromName: true, Priority: 86, Enabled: true},
	}
}
