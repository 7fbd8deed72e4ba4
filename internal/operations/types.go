package operations

import (
	"time"

	"yieldcli/internal/yieldengine"
)

// OperationRequest represents a request to run the workflow
type OperationRequest struct {
	ID      string    `json:"id"`
	RunDate time.Time `json:"run_date"`
	// Steps limits the run to the named steps; empty means all
	Steps []string `json:"steps,omitempty"`
}

// OperationResponse represents the result of a workflow run
type OperationResponse struct {
	ID         string                `json:"id"`
	RunDate    time.Time             `json:"run_date"`
	Status     OperationStatus       `json:"status"`
	Duration   time.Duration         `json:"duration"`
	Steps      map[string]*StepState `json:"steps"`
	Order      []string              `json:"order"`
	Summary    *yieldengine.Summary  `json:"summary,omitempty"`
	OutputPath string                `json:"output_path,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// StepsWithStatus returns the step states with the given status in
// execution order
func (r *OperationResponse) StepsWithStatus(status StepStatus) []*StepState {
	var out []*StepState
	for _, id := range r.Order {
		if s := r.Steps[id]; s != nil && s.GetStatus() == status {
			out = append(out, s)
		}
	}
	return out
}
