package report

import (
	"io"
	"time"

	"github.com/ppiankov/logsheet/internal/pipeline"
	"github.com/ppiankov/logsheet/internal/summary"
)

// Reporter is the interface for output formatters.
type Reporter interface {
	Generate(data Data) error
}

// Data holds all information needed to generate a report.
type Data struct {
	Tool      string                  `json:"tool"`
	Version   string                  `json:"version"`
	RunID     string                  `json:"run_id"`
	Timestamp time.Time               `json:"timestamp"`
	Config    ReportConfig            `json:"config"`
	Units     []summary.UnitSummary   `json:"units"`
	Totals    summary.Totals          `json:"totals"`
	Workbooks []pipeline.WorkbookInfo `json:"workbooks"`
	Skipped   []string                `json:"skipped,omitempty"`
}

// ReportConfig captures the run configuration used.
type ReportConfig struct {
	Mode             string   `json:"mode"`
	Dates            []string `json:"dates"`
	Prefixes         []string `json:"prefixes"`
	Targets          []string `json:"targets"`
	ThresholdSeconds int      `json:"threshold_seconds"`
	AnomalyKey       string   `json:"anomaly_key"`
	LogRoot          string   `json:"log_root"`
	OutputRoot       string   `json:"output_root"`
}

// TextReporter generates human-readable terminal output.
type TextReporter struct {
	Writer io.Writer
}

// JSONReporter generates a machine-readable run summary.
type JSONReporter struct {
	Writer io.Writer
}
