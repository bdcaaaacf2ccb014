package voices_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"overdub/internal/segments"
	"overdub/internal/services"
	"overdub/internal/testsupport"
	"overdub/internal/voices"
)

func mustAssigner(t *testing.T, lang string, xtts bool) *voices.Assigner {
	t.Helper()
	assigner, err := voices.NewAssigner(lang, xtts)
	if err != nil {
		t.Fatalf("NewAssigner(%q): %v", lang, err)
	}
	return assigner
}

func TestAssignWalksPalettesPerGender(t *testing.T) {
	assigner := mustAssigner(t, "hi", false)
	cfg, err := voices.ParseVoiceConfig([]byte(`{"0": "male", "1": "male", "2": "female"}`))
	if err != nil {
		t.Fatalf("ParseVoiceConfig: %v", err)
	}

	assignment, err := assigner.Assign(cfg)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	first := assignment.ProfileFor(0)
	if first.Voice != "hi-IN-MadhurNeural" || first.PitchHz != 0 {
		t.Fatalf("speaker 0 = %+v, want male voice at pitch 0", first)
	}
	second := assignment.ProfileFor(1)
	if second.Voice != "hi-IN-MadhurNeural" || second.PitchHz != -30 {
		t.Fatalf("speaker 1 = %+v, want male voice at pitch -30", second)
	}
	third := assignment.ProfileFor(2)
	if third.Voice != "hi-IN-SwaraNeural" || third.PitchHz != 0 {
		t.Fatalf("speaker 2 = %+v, want female voice at pitch 0", third)
	}
}

func TestAssignCyclesPaletteForManySpeakers(t *testing.T) {
	assigner := mustAssigner(t, "hi", false)
	cfg, err := voices.ParseVoiceConfig([]byte(`{"0": "male", "1": "male", "2": "male", "3": "male"}`))
	if err != nil {
		t.Fatalf("ParseVoiceConfig: %v", err)
	}

	assignment, err := assigner.Assign(cfg)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	pitches := make([]int, 4)
	for i := range pitches {
		pitches[i] = assignment.ProfileFor(segments.SpeakerID(i)).PitchHz
	}
	want := []int{0, -30, 40, 0}
	if !reflect.DeepEqual(pitches, want) {
		t.Fatalf("pitches = %v, want %v", pitches, want)
	}
}

func TestAssignIsDeterministic(t *testing.T) {
	assigner := mustAssigner(t, "hi", false)
	cfg, err := voices.ParseVoiceConfig([]byte(`{"2": "female", "0": "male", "1": "female", "3": "male"}`))
	if err != nil {
		t.Fatalf("ParseVoiceConfig: %v", err)
	}

	first, err := assigner.Assign(cfg)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	second, err := assigner.Assign(cfg)
	if err != nil {
		t.Fatalf("Assign again: %v", err)
	}
	if !reflect.DeepEqual(first.Profiles(), second.Profiles()) {
		t.Fatalf("assignments differ between runs:\n%+v\n%+v", first.Profiles(), second.Profiles())
	}
}

func TestAssignEmptyConfigUsesDefaultVoice(t *testing.T) {
	assigner := mustAssigner(t, "hi", false)

	assignment, err := assigner.Assign(voices.VoiceConfig{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	profile := assignment.ProfileFor(0)
	if profile.Voice != "hi-IN-MadhurNeural" || profile.PitchHz != 0 {
		t.Fatalf("default profile = %+v, want male default", profile)
	}
	if got := assignment.ProfileFor(7); got != profile {
		t.Fatalf("unconfigured speaker got %+v, want fallback %+v", got, profile)
	}
}

func TestAssignUnknownGenderFallsBackToFemale(t *testing.T) {
	assigner := mustAssigner(t, "hi", false)
	cfg, err := voices.ParseVoiceConfig([]byte(`{"0": "robot"}`))
	if err != nil {
		t.Fatalf("ParseVoiceConfig: %v", err)
	}

	assignment, err := assigner.Assign(cfg)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	profile := assignment.ProfileFor(0)
	if profile.Voice != "hi-IN-SwaraNeural" {
		t.Fatalf("unknown gender resolved to %+v, want female voice", profile)
	}
}

func TestAssignFallbackTracksSpeakerZero(t *testing.T) {
	assigner := mustAssigner(t, "hi", false)
	cfg, err := voices.ParseVoiceConfig([]byte(`{"0": "female", "1": "male"}`))
	if err != nil {
		t.Fatalf("ParseVoiceConfig: %v", err)
	}

	assignment, err := assigner.Assign(cfg)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got := assignment.ProfileFor(9); got != assignment.ProfileFor(0) {
		t.Fatalf("unconfigured speaker got %+v, want speaker 0 profile", got)
	}
}

func TestAssignCloningRequiresServer(t *testing.T) {
	assigner := mustAssigner(t, "hi", false)
	cfg := voices.VoiceConfig{
		0: {Engine: voices.EngineCloning, ReferenceAudio: "/refs/narrator.wav"},
	}

	if _, err := assigner.Assign(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Assign without XTTS = %v, want configuration error", err)
	}
}

func TestAssignCloningRequiresReferenceAudio(t *testing.T) {
	assigner := mustAssigner(t, "hi", true)
	cfg := voices.VoiceConfig{
		0: {Engine: voices.EngineCloning},
	}

	if _, err := assigner.Assign(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Assign without reference audio = %v, want configuration error", err)
	}
}

func TestAssignCloningProfileCarriesReference(t *testing.T) {
	assigner := mustAssigner(t, "hi", true)
	cfg := voices.VoiceConfig{
		0: {Engine: voices.EngineCloning, ReferenceAudio: "/refs/narrator.wav", Language: "en"},
	}

	assignment, err := assigner.Assign(cfg)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	profile := assignment.ProfileFor(0)
	if profile.Engine != voices.EngineCloning {
		t.Fatalf("engine = %q, want cloning", profile.Engine)
	}
	if profile.ReferenceAudio != "/refs/narrator.wav" || profile.Language != "en" {
		t.Fatalf("cloning profile = %+v", profile)
	}
}

func TestAssignRejectsUnknownEngine(t *testing.T) {
	assigner := mustAssigner(t, "hi", true)
	cfg := voices.VoiceConfig{0: {Engine: "vocoder"}}

	if _, err := assigner.Assign(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Assign with unknown engine = %v, want configuration error", err)
	}
}

func TestNewAssignerRejectsUnknownLanguage(t *testing.T) {
	if _, err := voices.NewAssigner("tlh", false); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("NewAssigner(tlh) = %v, want configuration error", err)
	}
}

func TestNewAssignerMatchesRegionalTag(t *testing.T) {
	assigner := mustAssigner(t, "hi-IN", false)
	assignment, err := assigner.Assign(voices.VoiceConfig{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got := assignment.ProfileFor(0).Voice; got != "hi-IN-MadhurNeural" {
		t.Fatalf("regional tag resolved to %q", got)
	}
}

func TestParseVoiceConfigAcceptsLabelKeys(t *testing.T) {
	cfg, err := voices.ParseVoiceConfig([]byte(`{"SPEAKER_00": "male", "SPEAKER_01": {"gender": "female"}}`))
	if err != nil {
		t.Fatalf("ParseVoiceConfig: %v", err)
	}
	if cfg[0].Gender != "male" {
		t.Fatalf("speaker 0 = %+v", cfg[0])
	}
	if cfg[1].Gender != "female" {
		t.Fatalf("speaker 1 = %+v", cfg[1])
	}
}

func TestParseVoiceConfigRejectsDuplicateSpeakers(t *testing.T) {
	_, err := voices.ParseVoiceConfig([]byte(`{"SPEAKER_01": "male", "1": "female"}`))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("duplicate speakers = %v, want validation error", err)
	}
}

func TestParseVoiceConfigRejectsNonObject(t *testing.T) {
	_, err := voices.ParseVoiceConfig([]byte(`["male"]`))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("non-object config = %v, want validation error", err)
	}
}

func TestLoadVoiceConfigMissingFile(t *testing.T) {
	_, err := voices.LoadVoiceConfig(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing file = %v, want not-found error", err)
	}
}

func TestLoadVoiceConfigEmptyPath(t *testing.T) {
	cfg, err := voices.LoadVoiceConfig("")
	if err != nil {
		t.Fatalf("LoadVoiceConfig(\"\"): %v", err)
	}
	if len(cfg) != 0 {
		t.Fatalf("empty path produced %d entries", len(cfg))
	}
}

func TestLoadVoiceConfigReadsFile(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "voices.json"), `{"0": "female"}`)
	cfg, err := voices.LoadVoiceConfig(path)
	if err != nil {
		t.Fatalf("LoadVoiceConfig: %v", err)
	}
	if cfg[0].Gender != "female" {
		t.Fatalf("loaded config = %+v", cfg)
	}
}
