// Package pipeline is the Pipeline Orchestrator and its worker-facing job
// processors: admission, phase routing, coalescing, and termination,
// grounded on this codebase's phase-state-machine coordinator
// package, adapted from an in-memory workflow state map to a queue-driven,
// horizontally-scalable shape suited to many small independent items.
package pipeline

import (
	"encoding/json"
	"fmt"

	"altimpact.dev/provider"
)

// Job is what travels through a provider-named queue: enough to invoke one
// provider method for one item without requiring the worker to re-derive
// the phase from scratch.
type Job struct {
	TIID     string         `json:"tiid"`
	Provider string         `json:"provider"`
	Phase    provider.Phase `json:"phase"`
}

// Encode serializes j for transport through workqueue.Queue's string payload.
func (j Job) Encode() (string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("pipeline: encode job: %w", err)
	}
	return string(b), nil
}

// DecodeJob reverses Encode.
func DecodeJob(payload string) (Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(payload), &j); err != nil {
		return Job{}, fmt.Errorf("pipeline: decode job: %w", err)
	}
	return j, nil
}
