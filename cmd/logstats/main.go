package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/aggregator"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/config"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/logging"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/logprocessor"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/metrics"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/reporting"
	"github.com/ShashankBejjanki1241/apache-log-stats/pkg/server"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("logstats", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: logstats [flags] <logfile>")
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	logPath := fs.Arg(0)

	configPath, _ := fs.GetString("config")
	cfg, err := config.LoadConfig(configPath, fs)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitUsage
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitUsage
	}
	logger.SetOutput(stderr)

	if err := analyze(ctx, cfg, logPath, stdout, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// analyze runs one pass over logPath, prints the report and, when
// configured, serves it until ctx is cancelled.
func analyze(ctx context.Context, cfg *config.Config, logPath string, stdout io.Writer, logger *logrus.Logger) error {
	reporter, err := reporting.NewReporter(cfg.Report.Format)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	agg := aggregator.New()
	processor := logprocessor.NewProcessor(agg,
		logprocessor.WithLogger(logger),
		logprocessor.WithMaxLineBytes(cfg.Processor.MaxLineBytes),
		logprocessor.WithMetrics(reg),
	)

	if err := processor.ProcessPath(logPath); err != nil {
		return fmt.Errorf("failed to process log file: %w", err)
	}

	data := reporting.NewReportData(cfg.Report.Title, logPath, agg.Finalize())
	stats := processor.GetStats()
	logger.WithFields(logrus.Fields{
		"run_id":          data.RunID,
		"source":          logPath,
		"lines_skipped":   stats.LinesSkipped,
		"lines_truncated": stats.LinesTruncated,
	}).Info("Report generated")

	if err := reporter.Write(stdout, data); err != nil {
		return err
	}

	if !cfg.Server.Enabled() {
		return nil
	}
	return server.NewServer(cfg.Server, data, logger, reg).Start(ctx)
}
