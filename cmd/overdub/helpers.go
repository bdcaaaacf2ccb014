package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"overdub/internal/config"
	"overdub/internal/media/ffprobe"
	"overdub/internal/preflight"
	"overdub/internal/queue"
)

// jobOptions collects the flags shared by `run` and `queue add`.
type jobOptions struct {
	video      string
	script     string
	voices     string
	background string
	output     string
	duration   float64
}

func registerJobFlags(cmd *cobra.Command, opts *jobOptions) {
	cmd.Flags().StringVar(&opts.video, "video", "", "Source video file")
	cmd.Flags().StringVar(&opts.script, "script", "", "Translated segment script (JSON)")
	cmd.Flags().StringVar(&opts.voices, "voices", "", "Speaker voice configuration (JSON)")
	cmd.Flags().StringVar(&opts.background, "background", "", "Background audio to mix beneath the dub")
	cmd.Flags().StringVar(&opts.output, "output", "", "Destination for the dubbed video")
	cmd.Flags().Float64Var(&opts.duration, "duration", 0, "Target duration in seconds (defaults to the source video duration)")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("script")
}

// buildJobRequest validates the CLI inputs and resolves them into a queue
// request. When no explicit duration is given the source video is probed so
// the reconcile stage has a real target to correct against.
func buildJobRequest(ctx context.Context, cfg *config.Config, opts jobOptions) (queue.NewJobRequest, error) {
	video, err := resolveInputFile("video", opts.video)
	if err != nil {
		return queue.NewJobRequest{}, err
	}
	script, err := resolveInputFile("script", opts.script)
	if err != nil {
		return queue.NewJobRequest{}, err
	}

	var voices string
	if strings.TrimSpace(opts.voices) != "" {
		voices, err = resolveInputFile("voices", opts.voices)
		if err != nil {
			return queue.NewJobRequest{}, err
		}
	}
	var background string
	if strings.TrimSpace(opts.background) != "" {
		background, err = resolveInputFile("background", opts.background)
		if err != nil {
			return queue.NewJobRequest{}, err
		}
	}

	var output string
	if strings.TrimSpace(opts.output) != "" {
		output, err = config.ExpandPath(opts.output)
		if err != nil {
			return queue.NewJobRequest{}, fmt.Errorf("resolve output path: %w", err)
		}
	}

	duration := opts.duration
	if duration <= 0 {
		probeCtx := ctx
		if timeout := cfg.ToolTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			probeCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		probe, err := ffprobe.Inspect(probeCtx, cfg.FFprobeBinary(), video)
		if err != nil {
			return queue.NewJobRequest{}, fmt.Errorf("probe video duration: %w", err)
		}
		duration = probe.DurationSeconds()
		if math.IsNaN(duration) || duration < 0 {
			duration = 0
		}
	}

	return queue.NewJobRequest{
		VideoPath:       video,
		ScriptPath:      script,
		VoiceConfigPath: voices,
		BackgroundPath:  background,
		OutputPath:      output,
		TargetDuration:  duration,
	}, nil
}

func resolveInputFile(label, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("%s path is required", label)
	}
	expanded, err := config.ExpandPath(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve %s path: %w", label, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", fmt.Errorf("inspect %s path %q: %w", label, expanded, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s path %q is a directory", label, expanded)
	}
	return expanded, nil
}

// runPreflight blocks processing when directories, configured services, or
// required tools are missing.
func runPreflight(ctx context.Context, cfg *config.Config) error {
	var failures []string
	for _, result := range preflight.RunAll(ctx, cfg) {
		if !result.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	for _, status := range preflight.CheckSystemDeps(ctx, cfg) {
		if !status.Available && !status.Optional {
			failures = append(failures, fmt.Sprintf("%s: %s", status.Name, status.Detail))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("preflight failed: %s", strings.Join(failures, "; "))
	}
	return nil
}
