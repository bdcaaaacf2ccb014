// Package ffprobe shells out to ffprobe and parses its JSON output into
// typed results.
//
// The pipeline uses it to read the duration of source videos and rendered
// clips and to confirm that mux outputs carry the expected streams.
package ffprobe
