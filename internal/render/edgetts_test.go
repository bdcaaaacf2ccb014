package render

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"overdub/internal/services"
)

func TestBuildEdgeTTSArgsAlwaysCarriesSignedPitch(t *testing.T) {
	req := SynthesisRequest{Text: "namaste duniya", Voice: "hi-IN-MadhurNeural", PitchHz: 0, SpeedFactor: 1.0}
	args := buildEdgeTTSArgs(req, "/tmp/clip.mp3")
	want := []string{"--voice", "hi-IN-MadhurNeural", "--text", "namaste duniya", "--pitch=+0Hz", "--write-media", "/tmp/clip.mp3"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args: %v", args)
	}

	req.PitchHz = -30
	args = buildEdgeTTSArgs(req, "/tmp/clip.mp3")
	if args[4] != "--pitch=-30Hz" {
		t.Fatalf("expected signed negative pitch, got %q", args[4])
	}
}

func TestBuildEdgeTTSArgsRatePercent(t *testing.T) {
	cases := []struct {
		factor float64
		want   string
	}{
		{1.25, "--rate=+25%"},
		{0.8, "--rate=-20%"},
		{2.0, "--rate=+100%"},
		{0.7, "--rate=-30%"},
	}
	for _, tc := range cases {
		req := SynthesisRequest{Text: "x", Voice: "v", SpeedFactor: tc.factor}
		args := buildEdgeTTSArgs(req, "clip.mp3")
		found := false
		for _, arg := range args {
			if arg == tc.want {
				found = true
			}
		}
		if !found {
			t.Fatalf("factor %.2f: expected %q in %v", tc.factor, tc.want, args)
		}
	}
}

func TestBuildEdgeTTSArgsOmitsRateAtNaturalSpeed(t *testing.T) {
	for _, factor := range []float64{1.0, 1.004, 0.996, 0} {
		req := SynthesisRequest{Text: "x", Voice: "v", SpeedFactor: factor}
		for _, arg := range buildEdgeTTSArgs(req, "clip.mp3") {
			if strings.HasPrefix(arg, "--rate") {
				t.Fatalf("factor %v: unexpected rate flag %q", factor, arg)
			}
		}
	}
}

func TestEdgeTTSSynthesizeRequiresVoice(t *testing.T) {
	backend := NewEdgeTTS("")
	err := backend.Synthesize(context.Background(), SynthesisRequest{Text: "hello"}, "clip.mp3")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestEdgeTTSSynthesizeCapturesInvocation(t *testing.T) {
	var gotName string
	var gotArgs []string
	backend := NewEdgeTTS("custom-edge-tts")
	backend.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	req := SynthesisRequest{Text: "namaste", Voice: "hi-IN-SwaraNeural", PitchHz: 25, SpeedFactor: 1.0}
	if err := backend.Synthesize(context.Background(), req, "/tmp/clip.mp3"); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if gotName != "custom-edge-tts" {
		t.Fatalf("expected custom binary, got %q", gotName)
	}
	want := []string{"--voice", "hi-IN-SwaraNeural", "--text", "namaste", "--pitch=+25Hz", "--write-media", "/tmp/clip.mp3"}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestEdgeTTSSynthesizeWrapsCommandFailure(t *testing.T) {
	backend := NewEdgeTTS("edge-tts")
	backend.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("exit status 1: no audio was received")
	})
	err := backend.Synthesize(context.Background(), SynthesisRequest{Text: "hello", Voice: "v"}, "clip.mp3")
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no audio was received") {
		t.Fatalf("expected command output in error, got %v", err)
	}
}

func TestEdgeTTSSynthesizeClassifiesTimeout(t *testing.T) {
	backend := NewEdgeTTS("edge-tts")
	backend.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	err := backend.Synthesize(ctx, SynthesisRequest{Text: "hello", Voice: "v"}, "clip.mp3")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}
