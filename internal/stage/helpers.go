package stage

import (
	"overdub/internal/queue"
	"overdub/internal/segments"
	"overdub/internal/services"
)

// LoadSegments loads and validates the script attached to a queue item.
// On failure it returns a services error suitable for stage Execute methods.
func LoadSegments(item *queue.Item) (*segments.Store, error) {
	if item == nil || item.ScriptPath == "" {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "load segments",
			"Queue item has no script attached", nil)
	}
	store, err := segments.LoadScript(item.ScriptPath)
	if err != nil {
		return nil, err
	}
	return store, nil
}
