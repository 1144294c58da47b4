// Package pipeline runs the consolidate, analyze and summarize stages over
// every workbook of a report run.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ppiankov/logsheet/internal/summary"
	"github.com/ppiankov/logsheet/internal/workbook"
)

// Options controls analysis of each workbook.
type Options struct {
	Mode       Mode
	Threshold  int
	AnomalyKey string
}

// WorkbookInfo describes a saved workbook.
type WorkbookInfo struct {
	Key    string `json:"key"`
	Path   string `json:"path"`
	Sheets int    `json:"sheets"`
	Bytes  int64  `json:"bytes"`
}

// Result is the outcome of a complete run.
type Result struct {
	Units     []summary.UnitSummary
	Workbooks []WorkbookInfo
	Skipped   []string
}

// Runner builds workbooks one at a time. Each workbook is fully written and
// closed before the next one is opened.
type Runner struct {
	log  *zap.Logger
	opts Options
}

// NewRunner returns a Runner.
func NewRunner(log *zap.Logger, opts Options) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log, opts: opts}
}

// Run plans the units of in and processes them in order. Sheet-level
// problems end up in the summary; I/O errors on the output side abort.
func (r *Runner) Run(in Input) (*Result, error) {
	if r.opts.Threshold <= 0 {
		return nil, fmt.Errorf("processing time threshold must be positive, got %d", r.opts.Threshold)
	}

	units, coverage := Plan(r.opts.Mode, in)
	agg := summary.NewAggregator()
	for _, c := range coverage {
		agg.RecordMissing(c.Key, c.SubUnits, c.Missing)
	}

	res := &Result{}
	for _, u := range units {
		if len(u.Sheets) == 0 {
			continue
		}
		if u.AllMissing() {
			r.log.Warn("No CSV files found; skipping workbook.", zap.String("key", u.Key), zap.String("excel", u.Output))
			res.Skipped = append(res.Skipped, u.Output)
			continue
		}

		outcome, info, err := r.process(u)
		if err != nil {
			return nil, err
		}
		agg.RecordOutcome(u.Key, outcome)
		res.Workbooks = append(res.Workbooks, info)
	}

	res.Units = agg.Render()
	summary.Log(r.log, res.Units)
	return res, nil
}

func (r *Runner) process(u Unit) (summary.Outcome, WorkbookInfo, error) {
	log := r.log.With(zap.String("excel", u.Output))
	log.Info("Starting to create workbook.")

	if err := os.MkdirAll(filepath.Dir(u.Output), 0o755); err != nil {
		return summary.Outcome{}, WorkbookInfo{}, fmt.Errorf("create output directory: %w", err)
	}

	f, err := workbook.NewFile()
	if err != nil {
		return summary.Outcome{}, WorkbookInfo{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	built := workbook.NewConsolidator(log).Build(f, u.Sheets)

	analyzer := workbook.NewAnalyzer(log, r.opts.Threshold, r.opts.AnomalyKey)
	analysis := analyzer.Analyze(f)
	if err := analyzer.Reorder(f); err != nil {
		return summary.Outcome{}, WorkbookInfo{}, fmt.Errorf("reorder %s: %w", u.Output, err)
	}

	log.Info("Saving workbook.")
	if err := f.SaveAs(u.Output); err != nil {
		return summary.Outcome{}, WorkbookInfo{}, fmt.Errorf("save %s: %w", u.Output, err)
	}

	info := WorkbookInfo{Key: u.Key, Path: u.Output, Sheets: f.SheetCount}
	if st, err := os.Stat(u.Output); err == nil {
		info.Bytes = st.Size()
	}
	log.Info("Finished creating workbook.", zap.Int("sheets", info.Sheets))

	return summary.Outcome{
		Workbook:          u.Output,
		Ingested:          built.Ingested,
		NoData:            built.NoData,
		MergeFailed:       built.MergeFailed,
		ThresholdExceeded: analysis.ThresholdExceeded,
		AnomalyDetected:   analysis.AnomalyDetected,
	}, info, nil
}
