// Package summary folds per-workbook outcomes into an end-of-run report
// keyed by processing unit.
package summary

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// NoAnomalies is the summary line of a unit with nothing to check.
const NoAnomalies = "No anomalies detected."

type unitState struct {
	workbooks   []string
	ingested    int
	noData      int
	sources     map[string]struct{}
	missing     map[string]struct{}
	mergeFailed map[string]struct{}
	exceeded    map[string]struct{}
	anomalies   map[string]struct{}
}

func newUnitState() *unitState {
	return &unitState{
		sources:     make(map[string]struct{}),
		missing:     make(map[string]struct{}),
		mergeFailed: make(map[string]struct{}),
		exceeded:    make(map[string]struct{}),
		anomalies:   make(map[string]struct{}),
	}
}

// Aggregator accumulates results per key. Recording only ever adds.
type Aggregator struct {
	units map[string]*unitState
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{units: make(map[string]*unitState)}
}

func (a *Aggregator) unit(key string) *unitState {
	u, ok := a.units[key]
	if !ok {
		u = newUnitState()
		a.units[key] = u
	}
	return u
}

// RecordMissing registers the sub-units looked up for key and which of them
// had no CSV.
func (a *Aggregator) RecordMissing(key string, subUnits []string, missing []string) {
	u := a.unit(key)
	addAll(u.sources, subUnits)
	addAll(u.missing, missing)
}

// RecordOutcome merges one workbook's results into key.
func (a *Aggregator) RecordOutcome(key string, o Outcome) {
	u := a.unit(key)
	if o.Workbook != "" {
		u.workbooks = append(u.workbooks, o.Workbook)
	}
	u.ingested += o.Ingested
	u.noData += o.NoData
	addAll(u.mergeFailed, o.MergeFailed)
	addAll(u.exceeded, o.ThresholdExceeded)
	addAll(u.anomalies, o.AnomalyDetected)
}

// Render returns one summary per key, sorted by key.
func (a *Aggregator) Render() []UnitSummary {
	keys := make([]string, 0, len(a.units))
	for k := range a.units {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]UnitSummary, 0, len(keys))
	for _, k := range keys {
		u := a.units[k]
		s := UnitSummary{
			Key:               k,
			Workbooks:         u.workbooks,
			Ingested:          u.ingested,
			NoData:            u.noData,
			AllMissing:        len(u.sources) > 0 && len(u.missing) >= len(u.sources),
			MergeFailed:       sorted(u.mergeFailed),
			ThresholdExceeded: sorted(u.exceeded),
			AnomalyDetected:   sorted(u.anomalies),
		}
		if !s.AllMissing {
			s.Missing = sorted(u.missing)
		}
		s.Messages = messages(s)
		out = append(out, s)
	}
	return out
}

// Total sums the rendered units.
func Total(units []UnitSummary) Totals {
	var t Totals
	t.Units = len(units)
	for _, u := range units {
		t.Workbooks += len(u.Workbooks)
		t.Ingested += u.Ingested
		t.NoData += u.NoData
		t.MergeFailed += len(u.MergeFailed)
		t.ThresholdExceeded += len(u.ThresholdExceeded)
		t.AnomalyDetected += len(u.AnomalyDetected)
		if !u.Clean() {
			t.UnitsNeedingCheck++
		}
	}
	return t
}

// Log writes the summary the way operators read it in the run log: one
// header line per key followed by its findings as warnings.
func Log(log *zap.Logger, units []UnitSummary) {
	log.Info("Starting to log summary.")
	for _, u := range units {
		log.Info("Summary for " + u.Key + ":")
		if u.Clean() {
			log.Info(NoAnomalies)
			continue
		}
		for _, m := range u.Messages {
			log.Warn(m)
		}
	}
	log.Info("Finished logging summary.")
}

func messages(s UnitSummary) []string {
	var out []string
	if s.AllMissing {
		out = append(out, "No CSV files found.")
	}
	if len(s.Missing) > 0 {
		out = append(out, "Partial data loss, missing: "+strings.Join(s.Missing, ", "))
	}
	if len(s.ThresholdExceeded) > 0 {
		out = append(out, "Exceeded threshold detected: "+strings.Join(s.ThresholdExceeded, ", "))
	}
	if len(s.AnomalyDetected) > 0 {
		out = append(out, "Anomaly value detected: "+strings.Join(s.AnomalyDetected, ", "))
	}
	if len(s.MergeFailed) > 0 {
		out = append(out, "Merge failed sheets: "+strings.Join(s.MergeFailed, ", "))
	}
	if len(out) == 0 {
		out = append(out, NoAnomalies)
	}
	return out
}

func addAll(set map[string]struct{}, items []string) {
	for _, it := range items {
		set[it] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
