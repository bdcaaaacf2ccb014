package segments

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"overdub/internal/services"
)

// scriptSegment is the wire form produced by the upstream translation step.
// The speaker field arrives as an integer, a numeral string, or a diarization
// label like "SPEAKER_02"; absent means speaker 0.
type scriptSegment struct {
	Speaker json.RawMessage `json:"speaker"`
	Text    string          `json:"text"`
	Start   float64         `json:"start"`
	End     float64         `json:"end"`
}

type scriptPayload struct {
	Segments []scriptSegment `json:"segments"`
}

// ParseScript decodes a translated script from r and returns a validated
// Store. Both a bare JSON array of segments and an object wrapping them under
// a "segments" key (the transcriber's native shape) are accepted.
func ParseScript(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "segments", "read script", "", err)
	}

	raw, err := decodeScript(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "segments", "parse script", "", err)
	}

	segs := make([]Segment, 0, len(raw))
	for _, entry := range raw {
		segs = append(segs, Segment{
			Speaker: decodeSpeaker(entry.Speaker),
			Text:    strings.TrimSpace(entry.Text),
			Start:   entry.Start,
			End:     entry.End,
		})
	}
	return NewStore(segs)
}

// LoadScript reads and parses the script file at path.
func LoadScript(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "segments", "load script", path, err)
		}
		return nil, services.Wrap(services.ErrValidation, "segments", "load script", path, err)
	}
	defer file.Close()
	return ParseScript(file)
}

func decodeScript(data []byte) ([]scriptSegment, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' })
	if strings.HasPrefix(trimmed, "[") {
		var list []scriptSegment
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse script json: %w", err)
		}
		return list, nil
	}
	var payload scriptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse script json: %w", err)
	}
	return payload.Segments, nil
}

func decodeSpeaker(raw json.RawMessage) SpeakerID {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0
		}
		return SpeakerID(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseSpeakerLabel(s)
	}
	return 0
}
