package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
)

var (
	pipelineStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_steps_total",
			Help: "Order and lead pipeline steps by pipeline, step name and outcome.",
		},
		[]string{"pipeline", "step", "status"},
	)

	leadsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_submitted_total",
			Help: "Accepted lead submissions by kind.",
		},
		[]string{"kind"},
	)
)

func recordSteps(pipeline string, steps []domain.PipelineStep) {
	for _, s := range steps {
		pipelineStepsTotal.WithLabelValues(pipeline, s.Name, s.Status).Inc()
	}
}
