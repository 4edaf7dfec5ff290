package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every noterag metric plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noterag_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "noterag_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	workflowStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noterag_workflow_steps_total",
			Help: "Total number of workflow step executions by step kind and result",
		},
		[]string{"step", "result"},
	)
	workflowInstancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noterag_workflow_instances_total",
			Help: "Total number of finished workflow instances by final status",
		},
		[]string{"status"},
	)
	answersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noterag_answers_total",
			Help: "Total number of generated answers by model",
		},
		[]string{"model"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestDuration,
		workflowStepsTotal,
		workflowInstancesTotal,
		answersTotal,
	)
}

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, path, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordWorkflowStep records one step execution. result is "ok", "replayed" or "error".
func RecordWorkflowStep(step, result string) {
	workflowStepsTotal.WithLabelValues(step, result).Inc()
}

// RecordWorkflowInstance records a workflow instance reaching a final status.
func RecordWorkflowInstance(status string) {
	workflowInstancesTotal.WithLabelValues(status).Inc()
}

// RecordAnswer records an answer generated by model.
func RecordAnswer(model string) {
	answersTotal.WithLabelValues(model).Inc()
}
