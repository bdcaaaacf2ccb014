package preflight

import (
	"context"
	"strings"

	"overdub/internal/config"
)

// Result is the outcome of one environment check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll runs every check that applies to cfg: the three pipeline
// directories always, the XTTS probe only when a server is configured.
// A nil config yields nil.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	dirs := []struct {
		name, path string
	}{
		{"Workspace directory", cfg.Paths.WorkspaceDir},
		{"Output directory", cfg.Paths.OutputDir},
		{"Log directory", cfg.Paths.LogDir},
	}
	results := make([]Result, 0, len(dirs)+1)
	for _, dir := range dirs {
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}

	if url := strings.TrimSpace(cfg.Tools.XTTSURL); url != "" {
		results = append(results, CheckXTTS(ctx, url))
	}
	return results
}
