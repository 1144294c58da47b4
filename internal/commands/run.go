package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/logsheet/internal/config"
	"github.com/ppiankov/logsheet/internal/dates"
	"github.com/ppiankov/logsheet/internal/logging"
	"github.com/ppiankov/logsheet/internal/pipeline"
	"github.com/ppiankov/logsheet/internal/report"
	"github.com/ppiankov/logsheet/internal/summary"
	"github.com/ppiankov/logsheet/internal/target"
)

var runFlags struct {
	configPath string
	logRoot    string
	outputRoot string
	mode       string
	format     string
	outputFile string
	logFile    string
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runFlags.configPath, "config", config.DefaultPath, "Path to config.yml")
	cmd.Flags().StringVar(&runFlags.logRoot, "log-root", config.DefaultLogRoot, "Directory holding one folder per host")
	cmd.Flags().StringVar(&runFlags.outputRoot, "output-root", config.DefaultOutputRoot, "Directory workbooks are written to")
	cmd.Flags().StringVar(&runFlags.mode, "mode", config.DefaultMode, "Report mode: date, host, date-prefix")
	cmd.Flags().StringVar(&runFlags.format, "format", "text", "Summary format: text, json")
	cmd.Flags().StringVarP(&runFlags.outputFile, "output", "o", "", "Summary output file path (default: stdout)")
	cmd.Flags().StringVar(&runFlags.logFile, "log-file", config.DefaultLogFile, "Rotating run log file")
}

func runReport(cmd *cobra.Command, args []string) error {
	var dateToken, targetToken string
	if len(args) > 0 {
		dateToken = args[0]
	}
	if len(args) > 1 {
		targetToken = args[1]
	}

	if err := checkFormat(runFlags.format); err != nil {
		return err
	}

	cfg, err := config.Load(runFlags.configPath)
	if err != nil {
		return enhanceError("load config", err)
	}
	applyFlagOverrides(cmd, &cfg)

	mode, err := pipeline.ParseMode(cfg.Mode)
	if err != nil {
		return enhanceError("select mode", err)
	}

	runID := uuid.NewString()
	log, closeLog, err := logging.New(logging.Options{
		Verbose:    verbose,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return enhanceError("initialize logging", err)
	}
	defer func() { _ = closeLog() }()
	log = log.With(zap.String("run_id", runID))

	log.Info("Process started.", zap.String("mode", mode.String()))

	data, err := execute(log, cfg, mode, dateToken, targetToken)
	if err != nil {
		log.Error("Process failed.", zap.Error(err))
		return err
	}
	data.RunID = runID
	log.Info("Process completed.")

	reporter, closer, err := selectReporter(runFlags.format, runFlags.outputFile)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	return reporter.Generate(*data)
}

func execute(log *zap.Logger, cfg config.Config, mode pipeline.Mode, dateToken, targetToken string) (*report.Data, error) {
	dateList, err := dates.NewResolver().Resolve(dateToken)
	if err != nil {
		return nil, enhanceError("resolve dates", err)
	}

	prefixes, fromToken, err := target.ResolvePrefixes(targetToken, cfg.Targets)
	if err != nil {
		return nil, enhanceError("resolve targets", err)
	}
	targets, err := target.Expand(prefixes, cfg.LogRoot)
	if err != nil {
		return nil, enhanceError("resolve targets", err)
	}
	log.Info("Resolved run.",
		zap.Strings("dates", dateList),
		zap.Strings("prefixes", prefixes),
		zap.Strings("targets", targets))

	runner := pipeline.NewRunner(log, pipeline.Options{
		Mode:       mode,
		Threshold:  cfg.ThresholdSeconds(),
		AnomalyKey: cfg.AnomalyKey,
	})
	res, err := runner.Run(pipeline.Input{
		Dates:             dateList,
		Prefixes:          prefixes,
		PrefixesFromToken: fromToken,
		Targets:           targets,
		LogRoot:           cfg.LogRoot,
		OutputRoot:        cfg.OutputRoot,
	})
	if err != nil {
		return nil, enhanceError("build workbooks", err)
	}

	return &report.Data{
		Tool:      "logsheet",
		Version:   version,
		Timestamp: time.Now().UTC(),
		Config: report.ReportConfig{
			Mode:             mode.String(),
			Dates:            dateList,
			Prefixes:         prefixes,
			Targets:          targets,
			ThresholdSeconds: cfg.ThresholdSeconds(),
			AnomalyKey:       cfg.AnomalyKey,
			LogRoot:          cfg.LogRoot,
			OutputRoot:       cfg.OutputRoot,
		},
		Units:     res.Units,
		Totals:    summary.Total(res.Units),
		Workbooks: res.Workbooks,
		Skipped:   res.Skipped,
	}, nil
}

// applyFlagOverrides copies explicitly set flags over config values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-root") {
		cfg.LogRoot = runFlags.logRoot
	}
	if flags.Changed("output-root") {
		cfg.OutputRoot = runFlags.outputRoot
	}
	if flags.Changed("mode") {
		cfg.Mode = runFlags.mode
	}
	if flags.Changed("log-file") {
		cfg.Log.File = runFlags.logFile
	}
}

func checkFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use text or json)", format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func selectReporter(format, outputFile string) (report.Reporter, io.Closer, error) {
	var w io.Writer = os.Stdout
	var c io.Closer = nopCloser{}

	if err := checkFormat(format); err != nil {
		return nil, nil, err
	}

	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("create output file: %w", err)
		}
		w, c = f, f
	}

	if format == "json" {
		return &report.JSONReporter{Writer: w}, c, nil
	}
	return &report.TextReporter{Writer: w}, c, nil
}
