package segments_test

import (
	"errors"
	"strings"
	"testing"

	"overdub/internal/segments"
	"overdub/internal/services"
)

func TestParseSpeakerLabel(t *testing.T) {
	cases := []struct {
		label string
		want  segments.SpeakerID
	}{
		{"SPEAKER_00", 0},
		{"SPEAKER_07", 7},
		{"SPEAKER_12", 12},
		{"3", 3},
		{" 4 ", 4},
		{"narrator", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := segments.ParseSpeakerLabel(tc.label); got != tc.want {
			t.Fatalf("ParseSpeakerLabel(%q) = %d, want %d", tc.label, got, tc.want)
		}
	}
}

func TestNewStoreSortsAndValidates(t *testing.T) {
	store, err := segments.NewStore([]segments.Segment{
		{Speaker: 1, Text: "B", Start: 2, End: 5},
		{Speaker: 0, Text: "A", Start: 0, End: 2},
	})
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	all := store.All()
	if len(all) != 2 || all[0].Text != "A" || all[1].Text != "B" {
		t.Fatalf("expected segments sorted by start, got %+v", all)
	}
	if got := store.MaxEnd(); got != 5 {
		t.Fatalf("MaxEnd = %v, want 5", got)
	}
	speakers := store.Speakers()
	if len(speakers) != 2 || speakers[0] != 0 || speakers[1] != 1 {
		t.Fatalf("unexpected speakers: %v", speakers)
	}
}

func TestNewStoreRejectsEmptyScript(t *testing.T) {
	_, err := segments.NewStore(nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewStoreRejectsInvertedTiming(t *testing.T) {
	_, err := segments.NewStore([]segments.Segment{{Text: "x", Start: 3, End: 3}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = segments.NewStore([]segments.Segment{{Text: "x", Start: -1, End: 2}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative start, got %v", err)
	}
}

func TestNewStoreRejectsDuplicateStarts(t *testing.T) {
	_, err := segments.NewStore([]segments.Segment{
		{Speaker: 0, Text: "a", Start: 1.5, End: 2},
		{Speaker: 1, Text: "b", Start: 1.5, End: 3},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for duplicate start, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "duplicate start") {
		t.Fatalf("expected duplicate start detail, got %v", err)
	}
}

func TestOverlappingSegmentsAreAllowed(t *testing.T) {
	_, err := segments.NewStore([]segments.Segment{
		{Speaker: 0, Text: "a", Start: 0, End: 4},
		{Speaker: 1, Text: "b", Start: 1, End: 3},
	})
	if err != nil {
		t.Fatalf("overlapping segments should validate, got %v", err)
	}
}

func TestClipNameUsesStartTime(t *testing.T) {
	seg := segments.Segment{Start: 1.25, End: 2}
	if got := seg.ClipName(); got != "1.25.wav" {
		t.Fatalf("ClipName = %q, want 1.25.wav", got)
	}
	seg = segments.Segment{Start: 2, End: 3}
	if got := seg.ClipName(); got != "2.wav" {
		t.Fatalf("ClipName = %q, want 2.wav", got)
	}
}

func TestParseScriptBareArray(t *testing.T) {
	payload := `[
		{"speaker": "SPEAKER_00", "text": "namaste", "start": 0.0, "end": 2.0},
		{"speaker": "SPEAKER_01", "text": "dhanyavaad", "start": 2.0, "end": 5.0}
	]`
	store, err := segments.ParseScript(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ParseScript returned error: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", store.Len())
	}
	all := store.All()
	if all[0].Speaker != 0 || all[1].Speaker != 1 {
		t.Fatalf("unexpected speakers: %+v", all)
	}
}

func TestParseScriptWrappedObjectAndSpeakerForms(t *testing.T) {
	payload := `{"segments": [
		{"speaker": 2, "text": "a", "start": 0, "end": 1},
		{"speaker": "1", "text": "b", "start": 1, "end": 2},
		{"text": "c", "start": 2, "end": 3}
	]}`
	store, err := segments.ParseScript(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ParseScript returned error: %v", err)
	}
	all := store.All()
	if all[0].Speaker != 2 || all[1].Speaker != 1 || all[2].Speaker != 0 {
		t.Fatalf("unexpected speaker decoding: %+v", all)
	}
}

func TestParseScriptRejectsMalformedJSON(t *testing.T) {
	_, err := segments.ParseScript(strings.NewReader("{not json"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadScriptMissingFile(t *testing.T) {
	_, err := segments.LoadScript("/nonexistent/script.json")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
