package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result holds the decoded ffprobe report for one media file.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one entry from the show_streams section.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format is the container-level show_format section.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

var inspectArgs = []string{
	"-v", "error",
	"-hide_banner",
	"-show_format",
	"-show_streams",
	"-of", "json",
	"--",
}

// Inspect runs ffprobe on path and decodes its JSON report. An empty binary
// falls back to "ffprobe" from PATH.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	if path = strings.TrimSpace(path); path == "" {
		return Result{}, errors.New("ffprobe: no input path")
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}

	args := append(append([]string(nil), inspectArgs...), path)
	output, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("run ffprobe: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var report Result
	if err := json.Unmarshal(output, &report); err != nil {
		return Result{}, fmt.Errorf("decode ffprobe report: %w", err)
	}
	return report, nil
}

func (r Result) countStreams(codecType string) int {
	n := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			n++
		}
	}
	return n
}

// VideoStreamCount counts streams whose codec type is video.
func (r Result) VideoStreamCount() int { return r.countStreams("video") }

// AudioStreamCount counts streams whose codec type is audio.
func (r Result) AudioStreamCount() int { return r.countStreams("audio") }

// HasVideo reports whether the container carries at least one video stream.
func (r Result) HasVideo() bool { return r.VideoStreamCount() > 0 }

// HasAudio reports whether the container carries at least one audio stream.
func (r Result) HasAudio() bool { return r.AudioStreamCount() > 0 }

// DurationSeconds returns the container duration in seconds. Containers
// without a duration report 0; unparseable values report NaN.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// AudioSampleRate returns the sample rate of the first audio stream, or 0
// when the container has none.
func (r Result) AudioSampleRate() int {
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		// NaN from an unparseable rate fails the comparison and reports 0.
		if rate := parseFloat(stream.SampleRate); rate > 0 {
			return int(rate)
		}
		return 0
	}
	return 0
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}
