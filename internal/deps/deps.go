// Package deps verifies the external tools a dubbing run shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names one external tool the pipeline shells out to. Command may
// be a bare name (resolved through PATH) or an explicit path from the [tools]
// config section.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the lookup outcome for a single Requirement. Detail holds the
// resolved binary path on success and the failure reason otherwise.
type Status struct {
	Requirement

	Available bool
	Detail    string
}

// CheckBinaries looks up every requirement and reports availability in the
// same order.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for i, req := range requirements {
		statuses[i] = lookup(req)
	}
	return statuses
}

func lookup(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)

	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if path, err := exec.LookPath(req.Command); err == nil {
		status.Available = true
		status.Detail = path
	} else {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
	}
	return status
}
