// Package main hosts the overdub CLI entrypoint and command graph.
//
// The cobra command tree translates terminal invocations into queue
// operations and synchronous pipeline runs: enqueueing dubbing jobs, draining
// the queue, inspecting stage health, and configuration scaffolding. Config
// resolution, the processing lock, and logger setup all live here so the
// internal packages stay free of CLI concerns.
package main
