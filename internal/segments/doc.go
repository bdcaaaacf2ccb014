// Package segments models the translated speech script consumed by the
// dubbing pipeline: per-speaker, time-bounded text segments.
//
// Scripts arrive as JSON from the upstream transcription/translation steps.
// Parsing normalizes speaker labels into typed identifiers and validates the
// timing invariants the renderer and compositor rely on: non-negative starts,
// end after start, and start-time uniqueness (rendered clips are addressed by
// their start time).
package segments
