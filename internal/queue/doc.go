// Package queue persists dubbing jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stale-item recovery, and the status
// transitions that mirror the workflow enum. Queue items capture job inputs,
// progress, duration drift, and artifact paths so stages can coordinate
// without additional state.
//
// The database is treated as transient storage for in-flight jobs rather
// than a long-term archive. Schema changes bump the version in schema.go;
// users clear the database to adopt the new schema. Additive changes ship as
// migrations/*.sql files applied in order at open.
package queue
