// Package services holds the small shared layer between stage handlers and
// the rest of overdub: context plumbing and the error taxonomy.
//
// The context helpers stamp the active job ID, stage name, and request ID
// onto a context.Context so loggers and outbound calls can tag their output.
// The sentinel markers plus Wrap keep failure classification consistent
// across stages (configuration vs render vs media tool vs timeout), which
// the workflow manager and notifications rely on when reporting failures.
package services
