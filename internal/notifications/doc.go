// Package notifications delivers dubbing milestones via pluggable notifiers.
//
// The stock implementation posts to an ntfy topic from config.toml and falls
// back to a no-op when no topic is configured, so callers never need to
// branch on whether notifications are enabled. Events enumerate the job and
// queue milestones the workflow manager reports, keeping message wording in
// one place instead of scattered across stages.
//
// Alternative transports only need to implement the Service interface; the
// workflow depends on nothing else from this package.
package notifications
