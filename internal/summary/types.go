package summary

// Outcome is what one workbook contributed to its summary key.
type Outcome struct {
	Workbook          string
	Ingested          int
	NoData            int
	MergeFailed       []string
	ThresholdExceeded []string
	AnomalyDetected   []string
}

// UnitSummary is the rendered state of one summary key (a date or a host).
type UnitSummary struct {
	Key               string   `json:"key"`
	Workbooks         []string `json:"workbooks,omitempty"`
	Ingested          int      `json:"ingested"`
	NoData            int      `json:"no_data"`
	AllMissing        bool     `json:"all_missing"`
	Missing           []string `json:"missing,omitempty"`
	MergeFailed       []string `json:"merge_failed,omitempty"`
	ThresholdExceeded []string `json:"threshold_exceeded,omitempty"`
	AnomalyDetected   []string `json:"anomaly_detected,omitempty"`
	Messages          []string `json:"messages"`
}

// Clean reports whether nothing in the unit needs attention.
func (u UnitSummary) Clean() bool {
	return !u.AllMissing && len(u.Missing) == 0 && len(u.MergeFailed) == 0 &&
		len(u.ThresholdExceeded) == 0 && len(u.AnomalyDetected) == 0
}

// Totals aggregates counts across all units of a run.
type Totals struct {
	Units             int `json:"units"`
	Workbooks         int `json:"workbooks"`
	Ingested          int `json:"ingested"`
	NoData            int `json:"no_data"`
	MergeFailed       int `json:"merge_failed"`
	ThresholdExceeded int `json:"threshold_exceeded"`
	AnomalyDetected   int `json:"anomaly_detected"`
	UnitsNeedingCheck int `json:"units_needing_check"`
}
