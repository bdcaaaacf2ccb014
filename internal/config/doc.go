// Package config loads, normalizes, and validates overdub configuration data.
//
// Settings come from three layers, lowest priority first: built-in defaults,
// an optional TOML file, and OVERDUB_* environment variables such as
// OVERDUB_NTFY_TOPIC and OVERDUB_XTTS_URL. Paths are expanded (including
// tilde shortcuts) before use, and the Config type centralizes every knob the
// pipeline and CLI need, from workspace layout to synthesis timeouts.
//
// Downstream code should always go through this package so it receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
