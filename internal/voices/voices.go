package voices

import (
	"fmt"
	"strings"

	"overdub/internal/segments"
	"overdub/internal/services"
)

// Engine names accepted in voice configurations.
const (
	EngineSimple  = "simple"
	EngineCloning = "cloning"
)

// Pitch palettes give same-gender speakers distinguishable timbres. The
// ordinal assignment cycles through the palette, so a fourth male speaker
// sounds like the first again.
var (
	malePitchPalette   = []int{0, -30, 40}
	femalePitchPalette = []int{0, 25, -25}
)

// VoiceProfile is the fully resolved synthesis voice for one speaker.
type VoiceProfile struct {
	Engine         string
	Voice          string
	PitchHz        int
	ReferenceAudio string
	Language       string
}

// Assignment maps speakers to their resolved voice profiles for one run.
type Assignment struct {
	profiles map[segments.SpeakerID]VoiceProfile
	fallback VoiceProfile
}

// ProfileFor returns the profile assigned to the speaker. Speakers the script
// produced but the voice configuration never mentioned fall back to the
// default profile, mirroring the upstream behaviour of attributing unknown
// speech to the primary speaker's voice.
func (a Assignment) ProfileFor(id segments.SpeakerID) VoiceProfile {
	if profile, ok := a.profiles[id]; ok {
		return profile
	}
	return a.fallback
}

// Profiles returns the explicit speaker to profile mapping.
func (a Assignment) Profiles() map[segments.SpeakerID]VoiceProfile {
	return a.profiles
}

// Assigner derives deterministic voice assignments for a session.
type Assigner struct {
	language    string
	maleVoice   string
	femaleVoice string
	xttsEnabled bool
}

// NewAssigner resolves the voice catalog entry for the target language.
// xttsEnabled reports whether a cloning backend is configured; cloning
// requests fail with a configuration error when it is false.
func NewAssigner(targetLanguage string, xttsEnabled bool) (*Assigner, error) {
	male, female, err := voicesForLanguage(targetLanguage)
	if err != nil {
		return nil, err
	}
	return &Assigner{
		language:    targetLanguage,
		maleVoice:   male,
		femaleVoice: female,
		xttsEnabled: xttsEnabled,
	}, nil
}

// Assign maps every configured speaker to a VoiceProfile. Assignment walks
// speakers in ascending identifier order keeping one ordinal counter per
// gender, so assignment is deterministic: the same configuration always
// yields the same mapping. An empty configuration produces a single default
// mapping for speaker 0.
func (a *Assigner) Assign(cfg VoiceConfig) (Assignment, error) {
	assignment := Assignment{
		profiles: make(map[segments.SpeakerID]VoiceProfile),
		fallback: VoiceProfile{
			Engine:   EngineSimple,
			Voice:    a.maleVoice,
			PitchHz:  malePitchPalette[0],
			Language: a.language,
		},
	}

	if len(cfg) == 0 {
		assignment.profiles[0] = assignment.fallback
		return assignment, nil
	}

	ordered := cfg.orderedSpeakers()
	maleCount, femaleCount := 0, 0
	for _, id := range ordered {
		spec := cfg[id]
		engine := strings.ToLower(strings.TrimSpace(spec.Engine))
		if engine == "" {
			engine = EngineSimple
		}

		switch engine {
		case EngineSimple:
			var profile VoiceProfile
			if isMale(spec.Gender) {
				profile = VoiceProfile{
					Engine:   EngineSimple,
					Voice:    a.maleVoice,
					PitchHz:  malePitchPalette[maleCount%len(malePitchPalette)],
					Language: a.language,
				}
				maleCount++
			} else {
				// Unrecognized gender labels take the female palette by policy.
				profile = VoiceProfile{
					Engine:   EngineSimple,
					Voice:    a.femaleVoice,
					PitchHz:  femalePitchPalette[femaleCount%len(femalePitchPalette)],
					Language: a.language,
				}
				femaleCount++
			}
			assignment.profiles[id] = profile

		case EngineCloning:
			if !a.xttsEnabled {
				return Assignment{}, services.Wrap(services.ErrConfiguration, "voices", "assign",
					fmt.Sprintf("speaker %d requests voice cloning but no XTTS server is configured", id), nil)
			}
			ref := strings.TrimSpace(spec.ReferenceAudio)
			if ref == "" {
				return Assignment{}, services.Wrap(services.ErrConfiguration, "voices", "assign",
					fmt.Sprintf("speaker %d requests voice cloning without reference audio", id), nil)
			}
			lang := strings.TrimSpace(spec.Language)
			if lang == "" {
				lang = a.language
			}
			assignment.profiles[id] = VoiceProfile{
				Engine:         EngineCloning,
				ReferenceAudio: ref,
				Language:       lang,
			}

		default:
			return Assignment{}, services.Wrap(services.ErrConfiguration, "voices", "assign",
				fmt.Sprintf("speaker %d uses unknown engine %q", id, spec.Engine), nil)
		}
	}

	// Script speakers with no configured voice fall back to speaker 0's
	// profile when one exists.
	if profile, ok := assignment.profiles[0]; ok {
		assignment.fallback = profile
	}

	return assignment, nil
}

func isMale(gender string) bool {
	return strings.ToLower(strings.TrimSpace(gender)) == "male"
}
