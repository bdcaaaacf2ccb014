package pcm

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clips are canonical mono 16-bit PCM, so mixing is integer addition with
// clamping at the sample bounds.
const (
	bitDepth  = 16
	maxSample = 32767
	minSample = -32768
)

// Track holds mono PCM samples at a fixed sample rate. It is the in-memory
// form clips take while the dub track is assembled.
type Track struct {
	data []int
	rate int
}

// Silence returns a track of zero samples covering the given duration.
func Silence(duration float64, sampleRate int) *Track {
	if duration < 0 {
		duration = 0
	}
	return &Track{
		data: make([]int, sampleIndex(duration, sampleRate)),
		rate: sampleRate,
	}
}

// NewTrack wraps raw samples in a track. The slice is used directly.
func NewTrack(samples []int, sampleRate int) *Track {
	return &Track{data: samples, rate: sampleRate}
}

// SampleRate returns the track's sample rate in Hz.
func (t *Track) SampleRate() int {
	return t.rate
}

// Samples exposes the underlying sample slice.
func (t *Track) Samples() []int {
	return t.data
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	return float64(len(t.data)) / float64(t.rate)
}

// Overlay mixes clip into the track starting at offset seconds. Samples add
// together and clamp at the 16-bit bounds. A clip reaching past the end of
// the track extends it.
func (t *Track) Overlay(clip *Track, offset float64) error {
	if clip.rate != t.rate {
		return fmt.Errorf("overlay: clip rate %d does not match track rate %d", clip.rate, t.rate)
	}
	if offset < 0 {
		return fmt.Errorf("overlay: negative offset %.3f", offset)
	}

	start := sampleIndex(offset, t.rate)
	if need := start + len(clip.data); need > len(t.data) {
		t.data = append(t.data, make([]int, need-len(t.data))...)
	}
	for i, sample := range clip.data {
		t.data[start+i] = clampSample(t.data[start+i] + sample)
	}
	return nil
}

// TrimTo shortens the track to the given duration. Tracks already at or
// below the duration are unchanged.
func (t *Track) TrimTo(duration float64) {
	limit := sampleIndex(duration, t.rate)
	if limit < len(t.data) {
		t.data = t.data[:limit]
	}
}

// PadTo extends the track with silence up to the given duration. Tracks
// already at or beyond the duration are unchanged.
func (t *Track) PadTo(duration float64) {
	want := sampleIndex(duration, t.rate)
	if want > len(t.data) {
		t.data = append(t.data, make([]int, want-len(t.data))...)
	}
}

// WriteFile encodes the track as a WAV file at path.
func (t *Track) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pcm write: %w", err)
	}

	enc := wav.NewEncoder(f, t.rate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Data:   t.data,
		Format: &audio.Format{SampleRate: t.rate, NumChannels: 1},
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("pcm write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("pcm finalize %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("pcm close %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes a mono WAV file into a track.
func ReadFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pcm read: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("pcm decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("pcm decode %s: missing format", path)
	}
	if buf.Format.NumChannels != 1 {
		return nil, fmt.Errorf("pcm decode %s: %d channels, want mono", path, buf.Format.NumChannels)
	}
	return &Track{data: buf.Data, rate: buf.Format.SampleRate}, nil
}

// FileDuration reports the duration in seconds of a WAV file without keeping
// its samples.
func FileDuration(path string) (float64, error) {
	track, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	if track.rate <= 0 {
		return 0, errors.New("pcm duration: invalid sample rate")
	}
	return track.Duration(), nil
}

func sampleIndex(seconds float64, rate int) int {
	return int(math.Round(seconds * float64(rate)))
}

func clampSample(v int) int {
	if v > maxSample {
		return maxSample
	}
	if v < minSample {
		return minSample
	}
	return v
}
