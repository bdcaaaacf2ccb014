// Package voices resolves speaker voice assignments for dubbing runs.
// It combines a per-language catalog of neural voices with pitch palettes
// that keep same-gender speakers distinguishable, and supports cloned
// voices backed by an XTTS server.
package voices
