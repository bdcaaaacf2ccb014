package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"overdub/internal/services"
)

func newTestXTTS(t *testing.T, handler http.Handler) *XTTS {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend := NewXTTS(srv.URL)
	backend.backoff = time.Millisecond
	return backend
}

func TestXTTSSynthesizeWritesAudio(t *testing.T) {
	var got xttsRequest
	backend := newTestXTTS(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/synthesize" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("RIFFfake"))
	}))

	out := filepath.Join(t.TempDir(), "clip.wav")
	req := SynthesisRequest{Text: "namaste", ReferenceAudio: "/refs/speaker0.wav", Language: "hi", SpeedFactor: 1.25}
	if err := backend.Synthesize(context.Background(), req, out); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "RIFFfake" {
		t.Fatalf("unexpected audio payload %q", data)
	}
	if got.Text != "namaste" || got.SpeakerWAV != "/refs/speaker0.wav" || got.Language != "hi" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if got.Speed != 1.25 {
		t.Fatalf("expected speed 1.25, got %f", got.Speed)
	}
}

func TestXTTSSynthesizeDefaultsSpeed(t *testing.T) {
	var got xttsRequest
	backend := newTestXTTS(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("audio"))
	}))

	req := SynthesisRequest{Text: "x", ReferenceAudio: "/refs/a.wav", Language: "hi"}
	if err := backend.Synthesize(context.Background(), req, filepath.Join(t.TempDir(), "clip.wav")); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if got.Speed != 1.0 {
		t.Fatalf("expected natural speed default, got %f", got.Speed)
	}
}

func TestXTTSSynthesizeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	backend := newTestXTTS(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("audio"))
	}))

	req := SynthesisRequest{Text: "x", ReferenceAudio: "/refs/a.wav", Language: "hi"}
	if err := backend.Synthesize(context.Background(), req, filepath.Join(t.TempDir(), "clip.wav")); err != nil {
		t.Fatalf("Synthesize failed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestXTTSSynthesizeGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	backend := newTestXTTS(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "crash", http.StatusInternalServerError)
	}))

	req := SynthesisRequest{Text: "x", ReferenceAudio: "/refs/a.wav"}
	err := backend.Synthesize(context.Background(), req, filepath.Join(t.TempDir(), "clip.wav"))
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if calls.Load() != int32(xttsAttempts) {
		t.Fatalf("expected %d attempts, got %d", xttsAttempts, calls.Load())
	}
}

func TestXTTSSynthesizeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	backend := newTestXTTS(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported language", http.StatusBadRequest)
	}))

	req := SynthesisRequest{Text: "x", ReferenceAudio: "/refs/a.wav", Language: "tlh"}
	err := backend.Synthesize(context.Background(), req, filepath.Join(t.TempDir(), "clip.wav"))
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestXTTSSynthesizeRequiresReferenceAudio(t *testing.T) {
	backend := NewXTTS("http://127.0.0.1:9")
	err := backend.Synthesize(context.Background(), SynthesisRequest{Text: "x"}, "clip.wav")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
