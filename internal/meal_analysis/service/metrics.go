package service

import "sync/atomic"

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeDenied
	outcomeRejected
	outcomeFailed
)

// PipelineMetrics counts analysis outcomes
type PipelineMetrics struct {
	Succeeded int64 `json:"succeeded"`
	Denied    int64 `json:"denied"`
	Rejected  int64 `json:"rejected"`
	Failed    int64 `json:"failed"`
}

var pipelineMetrics PipelineMetrics

func recordOutcome(o outcome) {
	switch o {
	case outcomeSucceeded:
		atomic.AddInt64(&pipelineMetrics.Succeeded, 1)
	case outcomeDenied:
		atomic.AddInt64(&pipelineMetrics.Denied, 1)
	case outcomeRejected:
		atomic.AddInt64(&pipelineMetrics.Rejected, 1)
	case outcomeFailed:
		atomic.AddInt64(&pipelineMetrics.Failed, 1)
	}
}

// GetPipelineMetrics returns the current metrics snapshot
func GetPipelineMetrics() PipelineMetrics {
	return PipelineMetrics{
		Succeeded: atomic.LoadInt64(&pipelineMetrics.Succeeded),
		Denied:    atomic.LoadInt64(&pipelineMetrics.Denied),
		Rejected:  atomic.LoadInt64(&pipelineMetrics.Rejected),
		Failed:    atomic.LoadInt64(&pipelineMetrics.Failed),
	}
}
