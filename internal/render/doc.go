// Package render synthesizes per-segment speech clips for dubbing jobs.
//
// Rendering walks the script in ascending start order and produces one
// canonical WAV clip per segment, named after the segment start time. Each
// clip is synthesized through a pluggable backend (edge-tts template voices
// or an XTTS voice cloning server), converted to mono 16-bit PCM at the
// configured sample rate, and pace-corrected toward the segment's original
// duration with at most one corrective synthesis pass. Segments that fail
// synthesis are logged and skipped; the compositor substitutes silence for
// their spans.
package render
