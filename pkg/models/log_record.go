package models

// LogRecord represents one parsed Combined Log Format line
type LogRecord struct {
	Host      string `json:"host"`
	Timestamp string `json:"timestamp"` // raw bracketed text, not parsed
	Method    string `json:"method"`
	Resource  string `json:"resource"`
	Status    int    `json:"status"`
	Bytes     int64  `json:"bytes"`
}

// StatusClass returns the leading digit of the status code (200 -> 2)
func (r *LogRecord) StatusClass() int {
	return r.Status / 100
}

// ReportSummary represents the statistics derived from a finished run
type ReportSummary struct {
	TotalRequests      int64         `json:"total_requests"`
	TotalBytes         int64         `json:"total_bytes"`
	MostRequested      *KeyCount     `json:"most_requested,omitempty"`
	TopHost            *KeyCount     `json:"top_host,omitempty"`
	StatusDistribution []StatusShare `json:"status_distribution"`
}

// KeyCount pairs a resource or host with its request count
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// StatusShare is the share of requests that fell into one status class
type StatusShare struct {
	Class      string  `json:"class"` // e.g. "2xx"
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DistributionMap returns the status distribution keyed by class label
func (s ReportSummary) DistributionMap() map[string]float64 {
	out := make(map[string]float64, len(s.StatusDistribution))
	for _, share := range s.StatusDistribution {
		out[share.Class] = share.Percentage
	}
	return out
}
