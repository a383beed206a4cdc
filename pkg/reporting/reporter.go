package reporting

import (
	"bufio"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/models"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Reporter handles report rendering
type Reporter struct {
	format string
}

// ReportData contains all data needed for report generation
type ReportData struct {
	Title       string               `json:"title"`
	RunID       string               `json:"run_id"`
	Source      string               `json:"source"`
	GeneratedAt time.Time            `json:"generated_at"`
	Summary     models.ReportSummary `json:"summary"`
}

// NewReportData wraps a finished summary with run metadata
func NewReportData(title, source string, summary models.ReportSummary) *ReportData {
	now := time.Now().UTC()
	return &ReportData{
		Title:       title,
		RunID:       ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Source:      source,
		GeneratedAt: now,
		Summary:     summary,
	}
}

func NewReporter(format string) (*Reporter, error) {
	switch strings.ToLower(format) {
	case FormatText, FormatJSON, FormatCSV:
		return &Reporter{format: strings.ToLower(format)}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// Format returns the output format the reporter renders
func (r *Reporter) Format() string {
	return r.format
}

// Write renders data to w in the reporter's format
func (r *Reporter) Write(w io.Writer, data *ReportData) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(w, data)
	case FormatCSV:
		return r.writeCSV(w, data)
	default:
		return r.writeText(w, data)
	}
}

func (r *Reporter) writeText(w io.Writer, data *ReportData) error {
	s := data.Summary
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Total Requests: %d\n", s.TotalRequests)
	fmt.Fprintf(bw, "Total Data Transferred: %d bytes\n", s.TotalBytes)

	if s.MostRequested != nil {
		fmt.Fprintf(bw, "Most Requested Resource: %s (%d requests)\n", s.MostRequested.Key, s.MostRequested.Count)
	}
	if s.TopHost != nil {
		fmt.Fprintf(bw, "Top Host: %s (%d requests)\n", s.TopHost.Key, s.TopHost.Count)
	}

	fmt.Fprintln(bw, "Status Code Distribution:")
	for _, share := range s.StatusDistribution {
		fmt.Fprintf(bw, "  %s: %s%%\n", share.Class, formatPercentage(share.Percentage))
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	return nil
}

func (r *Reporter) writeJSON(w io.Writer, data *ReportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

func (r *Reporter) writeCSV(w io.Writer, data *ReportData) error {
	s := data.Summary
	writer := csv.NewWriter(w)

	rows := [][]string{
		{"metric", "key", "value"},
		{"total_requests", "", strconv.FormatInt(s.TotalRequests, 10)},
		{"total_bytes", "", strconv.FormatInt(s.TotalBytes, 10)},
	}
	if s.MostRequested != nil {
		rows = append(rows, []string{"most_requested", s.MostRequested.Key, strconv.FormatInt(s.MostRequested.Count, 10)})
	}
	if s.TopHost != nil {
		rows = append(rows, []string{"top_host", s.TopHost.Key, strconv.FormatInt(s.TopHost.Count, 10)})
	}
	for _, share := range s.StatusDistribution {
		rows = append(rows, []string{"status_percentage", share.Class, formatPercentage(share.Percentage)})
	}

	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV report: %w", err)
	}
	return nil
}

// formatPercentage prints the shortest decimal form, keeping at least one
// fractional digit (100 -> "100.0", 66.67 -> "66.67").
func formatPercentage(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
