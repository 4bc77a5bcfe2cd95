package match

import "strings"

// Quality is the resolution tier detected in a release name.
type Quality string

const (
	Quality4K      Quality = "4K"
	Quality1080p   Quality = "1080p"
	Quality720p    Quality = "720p"
	QualitySD      Quality = "SD"
	QualityUnknown Quality = ""
)

// Language is the language tier detected in a release name.
type Language string

const (
	LangMulti      Language = "multi"
	LangTrueFrench Language = "french-truefrench"
	LangFrenchDub  Language = "french-dub"
	LangVOSTFR     Language = "vostfr"
	LangUnknown    Language = ""
)

// Tags is the structured quality/language descriptor of a release name.
// Quality and Language are single-valued (first matching keyword wins);
// codec and HDR flags are additive.
type Tags struct {
	Quality  Quality
	HDR      bool
	DV       bool
	X265     bool
	Language Language
}

// ClassifyTags detects quality, codec and language tags by case-insensitive
// substring matching over a fixed priority-ordered keyword table.
func ClassifyTags(name string) Tags {
	upper := strings.ToUpper(name)
	contains := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(upper, s) {
				return true
			}
		}
		return false
	}

	var t Tags

	switch {
	case contains("2160P", "4K"):
		t.Quality = Quality4K
	case contains("1080P"):
		t.Quality = Quality1080p
	case contains("720P"):
		t.Quality = Quality720p
	case contains("480P", "SD"):
		t.Quality = QualitySD
	}

	t.HDR = contains("HDR")
	t.DV = contains("DV", "DOLBY VISION")
	t.X265 = contains("X265", "HEVC")

	switch {
	case contains("MULTI"):
		t.Language = LangMulti
	case contains("TRUEFRENCH", "VFF"):
		t.Language = LangTrueFrench
	case contains("FRENCH", "VF"):
		t.Language = LangFrenchDub
	case contains("VOSTFR", "SUBFRENCH"):
		t.Language = LangVOSTFR
	}

	return t
}

var languageLabels = map[Language]string{
	LangMulti:      "🇫🇷+🇺🇸 MULTI",
	LangTrueFrench: "🇫🇷 VFF",
	LangFrenchDub:  "🇫🇷 VF",
	LangVOSTFR:     "🇫🇷🇯🇵 VOSTFR",
}

// Label renders the descriptor as the display line shown to players, e.g.
// "📺 1080p | 🎞️ HDR x265 | 🇫🇷+🇺🇸 MULTI". Empty categories are omitted.
func (t Tags) Label() string {
	var parts []string
	if t.Quality != QualityUnknown {
		parts = append(parts, "📺 "+string(t.Quality))
	}

	var extras []string
	if t.HDR {
		extras = append(extras, "HDR")
	}
	if t.DV {
		extras = append(extras, "DV")
	}
	if t.X265 {
		extras = append(extras, "x265")
	}
	if len(extras) > 0 {
		parts = append(parts, "🎞️ "+strings.Join(extras, " "))
	}

	if label, ok := languageLabels[t.Language]; ok {
		parts = append(parts, label)
	}

	return strings.Join(parts, " | ")
}
