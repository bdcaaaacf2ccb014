// Package compose assembles rendered clips into the final dub track.
//
// The compositor lays every rendered clip onto a silent base track at its
// segment's start offset; spans without a clip stay silent. The reconciler
// then conforms the assembled track to the job's target duration, recording
// how far the composite drifted before correction.
package compose
