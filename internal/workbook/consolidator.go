// Package workbook fills an excelize workbook with one sheet per CSV export,
// then highlights and reorders those sheets for review.
package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// SentinelSheet holds the workbook's only sheet until real sheets exist.
	SentinelSheet = "SENTINEL_SHEET"
	// NoDataText fills the single cell of a placeholder sheet.
	NoDataText = "No CSV file found."
)

// SheetSource pairs a sheet name with its CSV. An empty CSVPath means the
// export was not found.
type SheetSource struct {
	Name    string
	CSVPath string
}

// Missing reports whether the source has no CSV.
func (s SheetSource) Missing() bool { return s.CSVPath == "" }

// ConsolidationResult is what Build reports back for the run summary.
type ConsolidationResult struct {
	Ingested    int
	NoData      int
	MergeFailed []string
}

// Consolidator copies CSV exports into workbook sheets.
type Consolidator struct {
	log *zap.Logger
}

// NewConsolidator returns a Consolidator logging to log.
func NewConsolidator(log *zap.Logger) *Consolidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consolidator{log: log}
}

// NewFile returns an empty workbook whose only sheet is the sentinel.
func NewFile() (*excelize.File, error) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)
	if first != SentinelSheet {
		if err := f.SetSheetName(first, SentinelSheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sentinel sheet: %w", err)
		}
	}
	return f, nil
}

// Build adds one sheet per source in order. A source whose CSV cannot be
// read or written is recorded in MergeFailed and leaves no sheet behind.
// A missing source becomes a gray placeholder sheet.
func (c *Consolidator) Build(f *excelize.File, sources []SheetSource) ConsolidationResult {
	c.log.Info("Starting to merge.", zap.Int("sheets", len(sources)))

	c.ensureSentinel(f)

	var res ConsolidationResult
	total := len(sources)
	for i, src := range sources {
		progress := fmt.Sprintf("%d/%d", i+1, total)

		if src.Missing() {
			if err := c.addNoDataSheet(f, src.Name); err != nil {
				c.log.Error("Failed to add placeholder sheet", zap.String("sheet", src.Name), zap.Error(err))
				c.dropSheet(f, src.Name)
				res.MergeFailed = append(res.MergeFailed, src.Name)
				continue
			}
			res.NoData++
			c.log.Info("Added sheet.", zap.String("sheet", src.Name), zap.String("progress", progress), zap.Bool("no_data", true))
			continue
		}

		if err := c.addCSVSheet(f, src); err != nil {
			c.log.Error("Failed to merge CSV", zap.String("sheet", src.Name), zap.String("csv", src.CSVPath), zap.Error(err))
			c.dropSheet(f, src.Name)
			res.MergeFailed = append(res.MergeFailed, src.Name)
			continue
		}
		res.Ingested++
		c.log.Info("Added sheet.", zap.String("sheet", src.Name), zap.String("progress", progress))
	}

	c.deleteSentinel(f)
	c.log.Info("Merging completed.",
		zap.Int("ingested", res.Ingested),
		zap.Int("no_data", res.NoData),
		zap.Int("failed", len(res.MergeFailed)))
	return res
}

func (c *Consolidator) ensureSentinel(f *excelize.File) {
	if idx, _ := f.GetSheetIndex(SentinelSheet); idx >= 0 {
		return
	}
	if _, err := f.NewSheet(SentinelSheet); err != nil {
		c.log.Warn("Failed to create sentinel sheet", zap.Error(err))
	}
}

func (c *Consolidator) addCSVSheet(f *excelize.File, src SheetSource) error {
	records, err := readTable(src.CSVPath)
	if err != nil {
		return err
	}
	if err := newSheet(f, src.Name); err != nil {
		return err
	}
	for r, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			if r == headerRow-1 {
				row[i] = v
			} else {
				row[i] = cellValue(v)
			}
		}
		if err := f.SetSheetRow(src.Name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	return nil
}

func (c *Consolidator) addNoDataSheet(f *excelize.File, name string) error {
	if err := newSheet(f, name); err != nil {
		return err
	}
	if err := f.SetCellValue(name, "A1", NoDataText); err != nil {
		return err
	}
	return SetTabColor(f, name, TabGray)
}

// newSheet refuses to reuse an existing sheet so a unit can never write into
// another unit's data.
func newSheet(f *excelize.File, name string) error {
	if idx, _ := f.GetSheetIndex(name); idx >= 0 {
		return fmt.Errorf("sheet %q already exists", name)
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	return nil
}

// dropSheet removes whatever a failed unit managed to create.
func (c *Consolidator) dropSheet(f *excelize.File, name string) {
	if name == SentinelSheet {
		return
	}
	if idx, _ := f.GetSheetIndex(name); idx < 0 {
		return
	}
	if err := f.DeleteSheet(name); err != nil {
		c.log.Warn("Failed to remove partial sheet", zap.String("sheet", name), zap.Error(err))
	}
}

func (c *Consolidator) deleteSentinel(f *excelize.File) {
	if idx, _ := f.GetSheetIndex(SentinelSheet); idx < 0 {
		c.log.Warn("Sentinel sheet already absent")
		return
	}
	if f.SheetCount <= 1 {
		c.log.Warn("No sheets were added; keeping sentinel sheet so the workbook is not empty")
		return
	}
	if err := f.DeleteSheet(SentinelSheet); err != nil {
		c.log.Warn("Failed to delete sentinel sheet", zap.Error(err))
		return
	}
	f.SetActiveSheet(0)
}
