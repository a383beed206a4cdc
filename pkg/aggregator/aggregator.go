package aggregator

import (
	"fmt"
	"strconv"

	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/models"
)

// Aggregator accumulates running counters over a stream of parsed records.
// It is owned by a single run and is not safe for concurrent use.
type Aggregator struct {
	totalRequests int64
	totalBytes    int64
	resources     *orderedCounter[string]
	hosts         *orderedCounter[string]
	statusClasses *orderedCounter[int]
}

func New() *Aggregator {
	return &Aggregator{
		resources:     newOrderedCounter[string](),
		hosts:         newOrderedCounter[string](),
		statusClasses: newOrderedCounter[int](),
	}
}

// Observe folds one record into the counters. Nil records are ignored.
func (a *Aggregator) Observe(record *models.LogRecord) {
	if record == nil {
		return
	}

	a.totalRequests++
	a.totalBytes += record.Bytes
	a.resources.inc(record.Resource)
	a.hosts.inc(record.Host)
	a.statusClasses.inc(record.StatusClass())
}

// Finalize derives the report summary from the current counters. It does not
// mutate state, so repeated calls return equal summaries.
func (a *Aggregator) Finalize() models.ReportSummary {
	summary := models.ReportSummary{
		TotalRequests:      a.totalRequests,
		TotalBytes:         a.totalBytes,
		StatusDistribution: make([]models.StatusShare, 0, a.statusClasses.len()),
	}

	if key, count, ok := a.resources.mostCommon(); ok {
		summary.MostRequested = &models.KeyCount{Key: key, Count: count}
	}
	if key, count, ok := a.hosts.mostCommon(); ok {
		summary.TopHost = &models.KeyCount{Key: key, Count: count}
	}

	if a.totalRequests == 0 {
		return summary
	}

	a.statusClasses.each(func(class int, count int64) {
		summary.StatusDistribution = append(summary.StatusDistribution, models.StatusShare{
			Class:      fmt.Sprintf("%dxx", class),
			Count:      count,
			Percentage: percentage(count, a.totalRequests),
		})
	})

	return summary
}

func (a *Aggregator) TotalRequests() int64 {
	return a.totalRequests
}

func (a *Aggregator) TotalBytes() int64 {
	return a.totalBytes
}

// ResourceCounts returns a copy of the per-resource counts
func (a *Aggregator) ResourceCounts() map[string]int64 {
	return a.resources.snapshot()
}

// HostCounts returns a copy of the per-host counts
func (a *Aggregator) HostCounts() map[string]int64 {
	return a.hosts.snapshot()
}

// StatusClassCounts returns a copy of the counts keyed by status class (status / 100)
func (a *Aggregator) StatusClassCounts() map[int]int64 {
	return a.statusClasses.snapshot()
}

// percentage returns 100*part/total rounded to two decimal places. The
// exact binary value is rounded with ties to even, so 3.125 becomes 3.12.
func percentage(part, total int64) float64 {
	v := float64(part) / float64(total) * 100
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
