package voices

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"overdub/internal/segments"
	"overdub/internal/services"
)

// SpeakerSpec is one speaker's entry in a voice configuration. A bare gender
// string in the JSON expands to {engine: "simple", gender: <value>}.
type SpeakerSpec struct {
	Engine         string `json:"engine"`
	Gender         string `json:"gender"`
	ReferenceAudio string `json:"reference_audio"`
	Language       string `json:"language"`
}

// VoiceConfig maps speakers to their requested voice treatment.
type VoiceConfig map[segments.SpeakerID]SpeakerSpec

func (c VoiceConfig) orderedSpeakers() []segments.SpeakerID {
	ids := make([]segments.SpeakerID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseVoiceConfig decodes a voice configuration document. Keys are speaker
// identifiers, written either as numerals ("0") or diarization labels
// ("SPEAKER_00"). Values are a gender string or a structured spec.
func ParseVoiceConfig(data []byte) (VoiceConfig, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrValidation, "voices", "parse_config", "voice configuration is not a JSON object", err)
	}

	cfg := make(VoiceConfig, len(raw))
	for key, value := range raw {
		id := segments.ParseSpeakerLabel(key)
		if _, dup := cfg[id]; dup {
			return nil, services.Wrap(services.ErrValidation, "voices", "parse_config",
				fmt.Sprintf("speaker %d configured more than once", id), nil)
		}

		spec, err := decodeSpeakerSpec(value)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "voices", "parse_config",
				fmt.Sprintf("invalid entry for speaker %q", key), err)
		}
		cfg[id] = spec
	}
	return cfg, nil
}

// LoadVoiceConfig reads and parses a voice configuration file. An empty path
// yields an empty configuration, which assigns the default voice.
func LoadVoiceConfig(path string) (VoiceConfig, error) {
	if strings.TrimSpace(path) == "" {
		return VoiceConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "voices", "load_config",
				fmt.Sprintf("voice configuration %s does not exist", path), err)
		}
		return nil, services.Wrap(services.ErrValidation, "voices", "load_config", "read voice configuration", err)
	}
	return ParseVoiceConfig(data)
}

func decodeSpeakerSpec(value json.RawMessage) (SpeakerSpec, error) {
	var gender string
	if err := json.Unmarshal(value, &gender); err == nil {
		return SpeakerSpec{Engine: EngineSimple, Gender: gender}, nil
	}

	var spec SpeakerSpec
	if err := json.Unmarshal(value, &spec); err != nil {
		return SpeakerSpec{}, err
	}
	return spec, nil
}
