package domain

import (
	"time"
)

// Pipeline step status constants.
const (
	StepPending   = "pending"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// Order pipeline step names, in execution order.
const (
	StepPersistOrder   = "persist_order"
	StepNotifyAdmin    = "notify_admin"
	StepNotifyCustomer = "notify_customer"
	StepPublishEvent   = "publish_event"
)

// Lead pipeline step names.
const StepNotifyDealer = "notify_dealer"

// PipelineStep records the outcome of one step of order processing.
type PipelineStep struct {
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executed_at,omitempty"`
}

// NewPipelineStep creates a step in the pending state.
func NewPipelineStep(name string) PipelineStep {
	return PipelineStep{
		Name:   name,
		Status: StepPending,
	}
}

// Complete marks the step as successfully completed.
func (s *PipelineStep) Complete() {
	s.Status = StepCompleted
	s.ExecutedAt = time.Now().UTC()
}

// Fail marks the step as failed with the given error message.
func (s *PipelineStep) Fail(err string) {
	s.Status = StepFailed
	s.Error = err
	s.ExecutedAt = time.Now().UTC()
}

// FailedSteps returns the names of steps that did not complete.
func FailedSteps(steps []PipelineStep) []string {
	var failed []string
	for _, s := range steps {
		if s.Status == StepFailed {
			failed = append(failed, s.Name)
		}
	}
	return failed
}
