// Package workflow drives queue items through the dubbing pipeline.
//
// The Manager polls the queue for the next actionable item, hands it to the
// stage handler registered for its status (render, compose, reconcile,
// merge), and records progress, heartbeats, and failure metadata along the
// way. Items whose heartbeat lapsed are reclaimed before each poll so a
// crashed run never wedges the queue. The manager also aggregates queue
// stats, invokes stage health checks, and sends notifications as jobs and
// queue drains start and finish.
//
// Work is strictly sequential: one job renders, composes, reconciles, and
// merges before the next is picked up. RunItem pushes a single item through
// the same machinery synchronously for the one-shot CLI path.
//
// New stages slot in through StageSet and the queue status enums; the
// transition rules live here and nowhere else.
package workflow
