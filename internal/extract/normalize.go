package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// glyphFold maps the stylized Unicode letters and digits that appear in
// provider channel names onto plain ASCII.
var glyphFold = strings.NewReplacer(
	"ᴿ", "R",
	"ᴬ", "A",
	"ᵂ", "W",
	"ᴹ", "M",
	"ᴰ", "D",
	"ᴴ", "H",
	"⁶", "6",
	"⁰", "0",
	"ᶠ", "F",
	"ᵖ", "P",
	"ˢ", "S",
	"ᴮ", "B",
	"ᴷ", "K",
	"ᴸ", "L",
	"ᴺ", "N",
	"ᵀ", "T",
	"ᵁ", "U",
	"ⁱ", "I",
	"ⁿ", "N",
)

var (
	// Colons survive normalization so namespaced tags like NETWORK:FOX
	// keep their separator.
	tagDisallowed     = regexp.MustCompile(`[^\p{L}\p{N}_\s:\-]`)
	tagSpaceRun       = regexp.MustCompile(`\s+`)
	tagUnderscoreRun  = regexp.MustCompile(`_+`)
	tagTrailingNumber = regexp.MustCompile(`_\d+$`)
)

// NormalizeTag canonicalizes a raw tag for storage and comparison:
// uppercase, stylized glyphs folded to ASCII, whitespace joined with
// underscores, and trailing numeric suffixes dropped so numbered variants
// of the same tag collapse together. Anything shorter than two characters
// normalizes to the empty string and is discarded by callers.
func NormalizeTag(raw string) string {
	n := strings.ToUpper(raw)
	n = glyphFold.Replace(n)
	n = tagDisallowed.ReplaceAllString(n, "")
	n = tagSpaceRun.ReplaceAllString(n, "_")
	n = tagUnderscoreRun.ReplaceAllString(n, "_")
	n = strings.Trim(n, "_")
	n = tagTrailingNumber.ReplaceAllString(n, "")
	if utf8.RuneCountInString(n) < 2 {
		return ""
	}
	return n
}
