package segments

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"overdub/internal/services"
)

// SpeakerID identifies one speaker within a script. Diarization labels like
// "SPEAKER_03" are parsed into this type once, at script load; downstream code
// never re-parses strings.
type SpeakerID int

// String renders the identifier in the diarization label form.
func (id SpeakerID) String() string {
	return fmt.Sprintf("SPEAKER_%02d", int(id))
}

var speakerLabelPattern = regexp.MustCompile(`SPEAKER_(\d+)`)

// ParseSpeakerLabel extracts the numeric speaker identifier from a diarization
// label ("SPEAKER_07") or a bare numeral ("7"). Unrecognized labels map to
// speaker 0, mirroring the upstream diarizer's default attribution.
func ParseSpeakerLabel(label string) SpeakerID {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0
	}
	if n, err := strconv.Atoi(label); err == nil && n >= 0 {
		return SpeakerID(n)
	}
	if match := speakerLabelPattern.FindStringSubmatch(label); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			return SpeakerID(n)
		}
	}
	return 0
}

// Segment is one time-bounded span of translated speech attributed to a
// speaker. Segments are read-only once parsed; the renderer and compositor
// never mutate them.
type Segment struct {
	Speaker SpeakerID
	Text    string
	Start   float64
	End     float64
}

// Duration returns the original speech duration the rendered clip must match.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// ClipName returns the file name the rendered clip for this segment is stored
// under. Clips are addressed by start time, which is why start times must be
// unique within a script.
func (s Segment) ClipName() string {
	return strconv.FormatFloat(s.Start, 'f', -1, 64) + ".wav"
}

// Store holds a validated script ordered by segment start time.
type Store struct {
	segments []Segment
}

// NewStore validates the provided segments and returns a Store sorted by
// ascending start time. Validation failures wrap services.ErrValidation.
func NewStore(segs []Segment) (*Store, error) {
	if len(segs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "segments", "validate", "script contains no segments", nil)
	}

	sorted := append([]Segment(nil), segs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	seen := make(map[string]struct{}, len(sorted))
	for i, seg := range sorted {
		if seg.Start < 0 {
			return nil, services.Wrap(services.ErrValidation, "segments", "validate",
				fmt.Sprintf("segment %d: start %.3f is negative", i, seg.Start), nil)
		}
		if seg.End <= seg.Start {
			return nil, services.Wrap(services.ErrValidation, "segments", "validate",
				fmt.Sprintf("segment %d: end %.3f must be greater than start %.3f", i, seg.End, seg.Start), nil)
		}
		name := seg.ClipName()
		if _, dup := seen[name]; dup {
			return nil, services.Wrap(services.ErrValidation, "segments", "validate",
				fmt.Sprintf("segment %d: duplicate start time %.3f (rendered clips are addressed by start)", i, seg.Start), nil)
		}
		seen[name] = struct{}{}
	}

	return &Store{segments: sorted}, nil
}

// Len returns the number of segments in the script.
func (st *Store) Len() int {
	if st == nil {
		return 0
	}
	return len(st.segments)
}

// All returns the segments in ascending start order. Callers must not modify
// the returned slice.
func (st *Store) All() []Segment {
	if st == nil {
		return nil
	}
	return st.segments
}

// MaxEnd returns the latest end time in the script.
func (st *Store) MaxEnd() float64 {
	if st == nil || len(st.segments) == 0 {
		return 0
	}
	max := st.segments[0].End
	for _, seg := range st.segments[1:] {
		if seg.End > max {
			max = seg.End
		}
	}
	return max
}

// Speakers returns the distinct speaker identifiers in ascending order.
func (st *Store) Speakers() []SpeakerID {
	if st == nil {
		return nil
	}
	seen := make(map[SpeakerID]struct{}, len(st.segments))
	for _, seg := range st.segments {
		seen[seg.Speaker] = struct{}{}
	}
	ids := make([]SpeakerID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
