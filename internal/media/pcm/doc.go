// Package pcm provides mono PCM track assembly for dubbed audio. Tracks are
// built from silence, mixed by sample addition with clamping, and exchanged
// with the rest of the pipeline as WAV files.
package pcm
