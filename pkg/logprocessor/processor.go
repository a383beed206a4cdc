package logprocessor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/aggregator"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/metrics"
)

// DefaultMaxLineBytes bounds how much of a single line is kept for parsing
const DefaultMaxLineBytes = 1024 * 1024 // 1MB

const readBufferSize = 64 * 1024

// Processor feeds lines from a source through ParseLine into an Aggregator.
// Lines are consumed strictly in order on the calling goroutine.
type Processor struct {
	agg          *aggregator.Aggregator
	logger       *logrus.Logger
	metrics      *metrics.Registry
	maxLineBytes int
	stats        ProcessingStats
}

// ProcessingStats tracks processing statistics
type ProcessingStats struct {
	LinesRead      int64
	LinesParsed    int64
	LinesSkipped   int64
	LinesTruncated int64
	StartTime      time.Time
}

type Option func(*Processor)

func WithLogger(logger *logrus.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithMaxLineBytes caps the bytes of a line handed to the parser. Anything
// beyond the cap is discarded; the grammar only looks at the line prefix.
func WithMaxLineBytes(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLineBytes = n
		}
	}
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(p *Processor) {
		p.metrics = reg
	}
}

func NewProcessor(agg *aggregator.Aggregator, opts ...Option) *Processor {
	p := &Processor{
		agg:          agg,
		maxLineBytes: DefaultMaxLineBytes,
		stats: ProcessingStats{
			StartTime: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logrus.New()
		p.logger.SetOutput(io.Discard)
	}
	if p.metrics == nil {
		p.metrics = metrics.NewRegistry()
	}
	return p
}

// ProcessPath opens the named file and processes it
func (p *Processor) ProcessPath(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if err := p.ProcessFile(file); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ProcessFile reads newline-delimited log lines until EOF. Unparseable lines
// are skipped and overlong lines are parsed from their first maxLineBytes
// bytes; only a read error aborts the run.
func (p *Processor) ProcessFile(reader io.Reader) error {
	size := readBufferSize
	if size > p.maxLineBytes {
		size = p.maxLineBytes
	}
	br := bufio.NewReaderSize(reader, size)

	line := make([]byte, 0, size)
	truncated := false

	for {
		fragment, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("error reading file at line %d: %w", p.stats.LinesRead+1, err)
		}

		room := p.maxLineBytes - len(line)
		if len(fragment) > room {
			fragment = fragment[:room]
			truncated = true
		}
		line = append(line, fragment...)

		if isPrefix {
			continue
		}

		p.processLine(string(line), truncated)
		line = line[:0]
		truncated = false
	}

	p.logger.WithFields(logrus.Fields{
		"lines_read":      p.stats.LinesRead,
		"lines_parsed":    p.stats.LinesParsed,
		"lines_skipped":   p.stats.LinesSkipped,
		"lines_truncated": p.stats.LinesTruncated,
		"duration":        time.Since(p.stats.StartTime),
	}).Info("Finished processing log input")

	return nil
}

func (p *Processor) processLine(line string, truncated bool) {
	p.stats.LinesRead++

	if truncated {
		p.stats.LinesTruncated++
		p.logger.WithFields(logrus.Fields{
			"line":  p.stats.LinesRead,
			"limit": p.maxLineBytes,
		}).Debug("Parsing prefix of overlong log line")
	}

	record, ok := ParseLine(line)
	if !ok {
		p.stats.LinesSkipped++
		p.metrics.LinesTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		p.logger.WithField("line", p.stats.LinesRead).Debug("Skipping unparseable log line")
		return
	}

	p.stats.LinesParsed++
	p.metrics.LinesTotal.WithLabelValues(metrics.ResultParsed).Inc()
	p.agg.Observe(record)
}

// GetStats returns current processing statistics
func (p *Processor) GetStats() ProcessingStats {
	return p.stats
}
