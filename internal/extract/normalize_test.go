package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already normalized", "US", "US"},
		{"lowercased input", "prime video", "PRIME_VIDEO"},
		{"superscript raw", "ᴿᴬᵂ", "RAW"},
		{"superscript fps", "⁶⁰ᶠᵖˢ", "60FPS"},
		{"superscript uhd", "ᵁᴴᴰ", "UHD"},
		{"spaces become underscores", "4K HDR", "4K_HDR"},
		{"namespaced tag keeps colon", "Network:FOX", "NETWORK:FOX"},
		{"hyphen preserved", "semi-final", "SEMI-FINAL"},
		{"punctuation stripped", "A&E!", "AE"},
		{"underscore runs collapse", "A__B", "A_B"},
		{"surrounding underscores trimmed", "_US_", "US"},
		{"numbered variant collapses", "ESPN_123", "ESPN"},
		{"spaced number collapses", "ESPN 123", "ESPN"},
		{"multiword location", "TWIN FALLS ID", "TWIN_FALLS_ID"},
		{"single letter discarded", "A", ""},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
		{"symbols only", "!!!", ""},
		{"too short after number strip", "A_1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTag(tt.raw))
		})
	}
}

func TestNormalizeTag_Idempotent(t *testing.T) {
	inputs := []string{"ᴿᴬᵂ", "prime video", "Network:FOX", "ESPN_123", "TWIN FALLS ID"}
	for _, raw := range inputs {
		once := NormalizeTag(raw)
		assert.Equal(t, once, NormalizeTag(once), "normalizing %q twice must settle", raw)
	}
}
