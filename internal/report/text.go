package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/logsheet/internal/summary"
)

// Generate writes human-readable terminal output.
func (r *TextReporter) Generate(data Data) error {
	tw := tabwriter.NewWriter(r.Writer, 0, 4, 2, ' ', 0)
	w := &errWriter{w: r.Writer}

	w.println("logsheet: CSV Consolidation Report")
	w.println(strings.Repeat("=", 34))
	w.println("")

	if len(data.Workbooks) == 0 {
		w.println("No workbooks written.")
	} else {
		w.printf("Wrote %d workbooks\n\n", len(data.Workbooks))

		tw2 := &errWriter{w: tw}
		tw2.printf("KEY\tSHEETS\tSIZE\tPATH\n")
		tw2.printf("---\t------\t----\t----\n")
		for _, wb := range data.Workbooks {
			tw2.printf("%s\t%d\t%s\t%s\n", wb.Key, wb.Sheets, humanize.IBytes(uint64(wb.Bytes)), wb.Path)
		}
		if tw2.err != nil {
			return tw2.err
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	w.println("")

	if len(data.Units) > 0 {
		tw2 := &errWriter{w: tw}
		tw2.printf("UNIT\tSTATUS\tMESSAGE\n")
		tw2.printf("----\t------\t-------\n")
		for _, u := range data.Units {
			tw2.printf("%s\t%s\t%s\n", u.Key, status(u), strings.Join(u.Messages, "; "))
		}
		if tw2.err != nil {
			return tw2.err
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		w.println("")
	}

	writeTextSummary(w, data)
	return w.err
}

func status(u summary.UnitSummary) string {
	switch {
	case u.AllMissing:
		return "missing"
	case u.Clean():
		return "ok"
	default:
		return "check"
	}
}

func writeTextSummary(w *errWriter, data Data) {
	t := data.Totals
	w.println("Summary")
	w.println("-------")
	w.printf("Units:                   %d\n", t.Units)
	w.printf("Workbooks written:       %d\n", t.Workbooks)
	w.printf("Sheets ingested:         %d\n", t.Ingested)
	w.printf("Placeholder sheets:      %d\n", t.NoData)
	w.printf("Merge failures:          %d\n", t.MergeFailed)
	w.printf("Threshold exceeded:      %d\n", t.ThresholdExceeded)
	w.printf("Anomalies detected:      %d\n", t.AnomalyDetected)
	w.printf("Units needing a check:   %d\n", t.UnitsNeedingCheck)

	if len(data.Skipped) > 0 {
		w.printf("\nSkipped (%d):\n", len(data.Skipped))
		for _, s := range data.Skipped {
			w.printf("  - %s\n", s)
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
