// Package preflight provides readiness checks for external tools
// and filesystem paths that Overdub depends on.
//
// These checks run in two contexts:
//   - The process loop runs RunAll and CheckSystemDeps before claiming work.
//     If a required check fails, the loop refuses to start instead of failing
//     jobs one by one.
//   - The CLI "overdub status" command uses individual check functions
//     (CheckDirectoryAccess, CheckXTTSFromConfig) to display readiness.
//
// Each check is gated by its config toggle -- unconfigured features are skipped.
package preflight
