package workbook

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Fixed column layout of the daily exports. Columns are zero-based.
const (
	headerRow            = 1
	dataStartRow         = headerRow + 1
	processingTimeColumn = 2
	alertDetailColumn    = 3
)

// DefaultAnomalyKey is the alert-detail field that marks an anomaly.
const DefaultAnomalyKey = "random_key"

const (
	maxGreen = 255
	minGreen = maxGreen / 2.0
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AnalysisResult lists the sheets that had at least one highlighted cell,
// split by the check that fired. Both slices are sorted.
type AnalysisResult struct {
	ThresholdExceeded []string
	AnomalyDetected   []string
}

// Analyzer highlights cells breaching the processing-time threshold or
// carrying an anomaly flag, and orders sheets by severity.
type Analyzer struct {
	log        *zap.Logger
	threshold  int
	anomalyKey string
}

// NewAnalyzer returns an Analyzer. threshold must be positive.
func NewAnalyzer(log *zap.Logger, threshold int, anomalyKey string) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if anomalyKey == "" {
		anomalyKey = DefaultAnomalyKey
	}
	return &Analyzer{log: log, threshold: threshold, anomalyKey: anomalyKey}
}

// CalculateColor maps a processing time at or above threshold onto a
// yellow to orange gradient. The excess ratio is clamped at 1, so every
// value from twice the threshold upward gets the same saturated color.
// The result is an RRGGBB hex string.
func CalculateColor(value, threshold int) string {
	ratio := float64(value-threshold) / float64(threshold)
	ratio = math.Min(ratio, 1)
	green := int(maxGreen - (maxGreen-minGreen)*ratio)
	return fmt.Sprintf("FF%02X7F", green)
}

// Analyze scans the data rows of every sheet and highlights matching cells.
// Cells that cannot be interpreted are logged and left alone.
func (a *Analyzer) Analyze(f *excelize.File) AnalysisResult {
	a.log.Info("Starting to highlight.", zap.Int("threshold", a.threshold))

	h := &highlighter{f: f, styles: make(map[string]int)}
	exceeded := make(map[string]struct{})
	anomalies := make(map[string]struct{})

	sheets := f.GetSheetList()
	total := len(sheets)
	for i, sheet := range sheets {
		if sheet == SentinelSheet {
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			a.log.Warn("Failed to read sheet", zap.String("sheet", sheet), zap.Error(err))
			continue
		}

		highlighted := false
		for r := dataStartRow - 1; r < len(rows); r++ {
			row := rows[r]
			if a.checkProcessingTime(h, sheet, row, r+1) {
				exceeded[sheet] = struct{}{}
				highlighted = true
			}
			if a.checkAlertDetail(h, sheet, row, r+1) {
				anomalies[sheet] = struct{}{}
				highlighted = true
			}
		}

		if highlighted {
			if err := SetTabColor(f, sheet, TabYellow); err != nil {
				a.log.Warn("Failed to color sheet tab", zap.String("sheet", sheet), zap.Error(err))
			}
			if _, ok := exceeded[sheet]; ok {
				a.log.Warn("Exceeded processing time threshold detected.", zap.String("sheet", sheet))
			}
			if _, ok := anomalies[sheet]; ok {
				a.log.Warn("Anomaly value detected.", zap.String("sheet", sheet))
			}
		}

		a.log.Info("Analyzed sheet.", zap.String("sheet", sheet), zap.String("progress", fmt.Sprintf("%d/%d", i+1, total)))
	}

	a.log.Info("Highlighting completed.")
	return AnalysisResult{
		ThresholdExceeded: sortedKeys(exceeded),
		AnomalyDetected:   sortedKeys(anomalies),
	}
}

func (a *Analyzer) checkProcessingTime(h *highlighter, sheet string, row []string, rowNum int) bool {
	if len(row) <= processingTimeColumn {
		return false
	}
	value := strings.TrimSpace(row[processingTimeColumn])
	if value == "" {
		return false
	}

	seconds, err := strconv.Atoi(strings.TrimRight(value, "s"))
	if err != nil {
		a.log.Warn("Invalid processing time value", zap.String("sheet", sheet), zap.Int("row", rowNum), zap.String("value", value))
		return false
	}
	if seconds < a.threshold {
		return false
	}

	if err := h.fill(sheet, processingTimeColumn, rowNum, CalculateColor(seconds, a.threshold)); err != nil {
		a.log.Warn("Failed to highlight cell", zap.String("sheet", sheet), zap.Int("row", rowNum), zap.Error(err))
	}
	return true
}

func (a *Analyzer) checkAlertDetail(h *highlighter, sheet string, row []string, rowNum int) bool {
	if len(row) <= alertDetailColumn {
		return false
	}
	value := row[alertDetailColumn]
	if strings.TrimSpace(value) == "" {
		return false
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		a.log.Warn("Invalid JSON format found", zap.String("sheet", sheet), zap.Int("row", rowNum), zap.Error(err))
		return false
	}

	flagged := false
	for _, item := range items {
		if v, ok := item[a.anomalyKey].(bool); ok && v {
			flagged = true
			break
		}
	}
	if !flagged {
		return false
	}

	if err := h.fill(sheet, alertDetailColumn, rowNum, yellowRGB); err != nil {
		a.log.Warn("Failed to highlight cell", zap.String("sheet", sheet), zap.Int("row", rowNum), zap.Error(err))
	}
	return true
}

// Reorder moves yellow sheets to the front and gray sheets to the back,
// keeping the original relative order inside each group.
func (a *Analyzer) Reorder(f *excelize.File) error {
	a.log.Info("Starting to reorder.")

	var yellow, none, gray []string
	for _, sheet := range f.GetSheetList() {
		c, err := GetTabColor(f, sheet)
		if err != nil {
			return fmt.Errorf("read tab color of %q: %w", sheet, err)
		}
		switch c {
		case TabYellow:
			yellow = append(yellow, sheet)
		case TabGray:
			gray = append(gray, sheet)
		default:
			none = append(none, sheet)
		}
	}

	order := make([]string, 0, len(yellow)+len(none)+len(gray))
	order = append(order, yellow...)
	order = append(order, none...)
	order = append(order, gray...)

	total := len(order)
	for i, sheet := range order {
		current := f.GetSheetList()
		if current[i] != sheet {
			// Positions before i are final, so sheet always moves leftwards.
			if err := f.MoveSheet(sheet, current[i]); err != nil {
				return fmt.Errorf("move sheet %q: %w", sheet, err)
			}
		}
		a.log.Info("Reordered sheet.", zap.String("sheet", sheet), zap.String("progress", fmt.Sprintf("%d/%d", i+1, total)))
	}

	if total > 0 {
		f.SetActiveSheet(0)
	}
	a.log.Info("Reordering completed.")
	return nil
}

// highlighter caches one fill style per color; style ids belong to a single
// workbook.
type highlighter struct {
	f      *excelize.File
	styles map[string]int
}

func (h *highlighter) fill(sheet string, col, rowNum int, rgb string) error {
	id, ok := h.styles[rgb]
	if !ok {
		var err error
		id, err = h.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#" + rgb}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		h.styles[rgb] = id
	}

	cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
	if err != nil {
		return err
	}
	return h.f.SetCellStyle(sheet, cell, cell, id)
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
