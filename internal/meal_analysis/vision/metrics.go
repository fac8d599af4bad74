package vision

import (
	"sync/atomic"
	"time"
)

// Metrics tracks vision provider call metrics
type Metrics struct {
	Calls          int64 `json:"calls"`
	Errors         int64 `json:"errors"`
	Timeouts       int64 `json:"timeouts"`
	NoMeal         int64 `json:"no_meal"`
	TotalLatencyNs int64 `json:"-"`
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		Calls:          atomic.LoadInt64(&globalMetrics.Calls),
		Errors:         atomic.LoadInt64(&globalMetrics.Errors),
		Timeouts:       atomic.LoadInt64(&globalMetrics.Timeouts),
		NoMeal:         atomic.LoadInt64(&globalMetrics.NoMeal),
		TotalLatencyNs: atomic.LoadInt64(&globalMetrics.TotalLatencyNs),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.Calls, 0)
	atomic.StoreInt64(&globalMetrics.Errors, 0)
	atomic.StoreInt64(&globalMetrics.Timeouts, 0)
	atomic.StoreInt64(&globalMetrics.NoMeal, 0)
	atomic.StoreInt64(&globalMetrics.TotalLatencyNs, 0)
}

// RecordCall records one upstream call
func RecordCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.Calls, 1)
	atomic.AddInt64(&globalMetrics.TotalLatencyNs, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.Errors, 1)
	}
}

// RecordTimeout records a call that hit the deadline
func RecordTimeout() {
	atomic.AddInt64(&globalMetrics.Timeouts, 1)
}

// RecordNoMeal records a response flagged as not food
func RecordNoMeal() {
	atomic.AddInt64(&globalMetrics.NoMeal, 1)
}

// AverageLatency returns the average latency in milliseconds
func (m Metrics) AverageLatency() float64 {
	if m.Calls == 0 {
		return 0
	}
	avgNs := float64(m.TotalLatencyNs) / float64(m.Calls)
	return avgNs / 1e6
}

// ErrorRate returns the error rate as a percentage
func (m Metrics) ErrorRate() float64 {
	if m.Calls == 0 {
		return 0
	}
	return float64(m.Errors) / float64(m.Calls) * 100
}
