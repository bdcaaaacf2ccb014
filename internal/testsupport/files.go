package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"overdub/internal/media/pcm"
)

// WriteFile writes contents to path, creating parent directories as needed,
// and returns the path.
func WriteFile(t testing.TB, path, contents string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteSilenceWAV writes a mono WAV of silence with the given duration and
// sample rate, and returns the path.
func WriteSilenceWAV(t testing.TB, path string, duration float64, rate int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := pcm.Silence(duration, rate).WriteFile(path); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	return path
}

// WriteToneWAV writes a mono WAV whose samples all carry the given value,
// making overlays easy to assert on, and returns the path.
func WriteToneWAV(t testing.TB, path string, duration float64, rate, value int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	samples := make([]int, int(duration*float64(rate)))
	for i := range samples {
		samples[i] = value
	}
	if err := pcm.NewTrack(samples, rate).WriteFile(path); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	return path
}
