package voices

import (
	"fmt"

	"golang.org/x/text/language"

	"overdub/internal/services"
)

// catalogEntry pairs the neural voices used for a language's male and female
// speakers.
type catalogEntry struct {
	tag    language.Tag
	male   string
	female string
}

// Supported languages and their voice pairs. Hindi leads because it is the
// default dubbing target; the matcher falls back to it for unmatched tags
// only when explicitly requested.
var catalog = []catalogEntry{
	{language.Hindi, "hi-IN-MadhurNeural", "hi-IN-SwaraNeural"},
	{language.English, "en-US-GuyNeural", "en-US-JennyNeural"},
	{language.Spanish, "es-ES-AlvaroNeural", "es-ES-ElviraNeural"},
	{language.French, "fr-FR-HenriNeural", "fr-FR-DeniseNeural"},
	{language.German, "de-DE-ConradNeural", "de-DE-KatjaNeural"},
	{language.Japanese, "ja-JP-KeitaNeural", "ja-JP-NanamiNeural"},
	{language.Chinese, "zh-CN-YunxiNeural", "zh-CN-XiaoxiaoNeural"},
	{language.Tamil, "ta-IN-ValluvarNeural", "ta-IN-PallaviNeural"},
	{language.Telugu, "te-IN-MohanNeural", "te-IN-ShrutiNeural"},
}

var catalogMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(catalog))
	for i, entry := range catalog {
		tags[i] = entry.tag
	}
	return language.NewMatcher(tags)
}()

// voicesForLanguage resolves the voice pair for a BCP 47 language tag.
// Region-qualified tags match their base entry ("hi-IN" resolves to "hi").
func voicesForLanguage(lang string) (male, female string, err error) {
	tag, parseErr := language.Parse(lang)
	if parseErr != nil {
		return "", "", services.Wrap(services.ErrConfiguration, "voices", "catalog",
			fmt.Sprintf("invalid target language %q", lang), parseErr)
	}
	_, index, confidence := catalogMatcher.Match(tag)
	if confidence == language.No {
		return "", "", services.Wrap(services.ErrConfiguration, "voices", "catalog",
			fmt.Sprintf("no voices available for language %q", lang), nil)
	}
	entry := catalog[index]
	return entry.male, entry.female, nil
}
