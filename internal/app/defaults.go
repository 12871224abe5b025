package app

import (
	"time"

	"github.com/example/llmtxt/internal/metrics"
)

func clockOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func collectorOrDefault(c *metrics.Collector) *metrics.Collector {
	if c == nil {
		return metrics.NewCollector(nil)
	}
	return c
}
