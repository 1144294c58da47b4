package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/logsheet/internal/target"
	"github.com/ppiankov/logsheet/internal/workbook"
)

// Mode selects how (date, target) pairs are grouped into workbooks.
type Mode int

const (
	// ModeByDate writes one workbook per date with a sheet per target.
	ModeByDate Mode = iota
	// ModeByHost writes one workbook per target with a sheet per date.
	ModeByHost
	// ModeByDateAndPrefix writes one workbook per date and prefix with a
	// sheet per target matching that prefix.
	ModeByDateAndPrefix
)

// ParseMode maps a config or flag value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "date":
		return ModeByDate, nil
	case "host":
		return ModeByHost, nil
	case "date-prefix":
		return ModeByDateAndPrefix, nil
	default:
		return 0, fmt.Errorf("unknown report mode %q (use date, host or date-prefix)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeByHost:
		return "host"
	case ModeByDateAndPrefix:
		return "date-prefix"
	default:
		return "date"
	}
}

// Input is the resolved iteration space of a run.
type Input struct {
	Dates             []string
	Prefixes          []string
	PrefixesFromToken bool
	Targets           []string
	LogRoot           string
	OutputRoot        string
}

// Unit is one output workbook.
type Unit struct {
	Key    string
	Output string
	Sheets []workbook.SheetSource
}

// AllMissing reports whether no sheet of the unit has a CSV.
func (u Unit) AllMissing() bool {
	for _, s := range u.Sheets {
		if !s.Missing() {
			return false
		}
	}
	return true
}

// Coverage is the CSV lookup result for one summary key.
type Coverage struct {
	Key      string
	SubUnits []string
	Missing  []string
}

// locations caches the CSV lookup for every (date, target) pair.
type locations map[string]map[string]string

func locate(in Input) locations {
	loc := make(locations, len(in.Dates))
	for _, d := range in.Dates {
		byTarget := make(map[string]string, len(in.Targets))
		for _, t := range in.Targets {
			byTarget[t] = target.Locate(in.LogRoot, t, d)
		}
		loc[d] = byTarget
	}
	return loc
}

// Plan enumerates the workbooks of a run and the CSV coverage per summary
// key. Units and sheets keep the order of in.Dates and in.Targets. Every
// unit has its own output path.
func Plan(m Mode, in Input) ([]Unit, []Coverage) {
	in.Dates = distinct(in.Dates)
	in.Prefixes = distinct(in.Prefixes)
	in.Targets = distinct(in.Targets)
	loc := locate(in)

	switch m {
	case ModeByHost:
		return planByHost(in, loc)
	case ModeByDateAndPrefix:
		return planByDateAndPrefix(in, loc)
	default:
		return planByDate(in, loc)
	}
}

func planByDate(in Input, loc locations) ([]Unit, []Coverage) {
	suffix := "config"
	if in.PrefixesFromToken {
		suffix = strings.Join(in.Prefixes, "_")
	}

	var units []Unit
	for _, d := range in.Dates {
		units = append(units, Unit{
			Key:    d,
			Output: filepath.Join(in.OutputRoot, d, d+"_"+suffix+".xlsx"),
			Sheets: sheetsForTargets(in.Targets, loc[d]),
		})
	}
	return units, coverageByDate(in, loc)
}

func planByDateAndPrefix(in Input, loc locations) ([]Unit, []Coverage) {
	var units []Unit
	for _, d := range in.Dates {
		for _, p := range in.Prefixes {
			var matched []string
			for _, t := range in.Targets {
				if strings.HasPrefix(t, p) {
					matched = append(matched, t)
				}
			}
			units = append(units, Unit{
				Key:    d,
				Output: filepath.Join(in.OutputRoot, d, d+"_"+p+".xlsx"),
				Sheets: sheetsForTargets(matched, loc[d]),
			})
		}
	}
	return units, coverageByDate(in, loc)
}

func planByHost(in Input, loc locations) ([]Unit, []Coverage) {
	var units []Unit
	var coverage []Coverage
	for _, t := range in.Targets {
		u := Unit{Key: t, Output: filepath.Join(in.OutputRoot, t+".xlsx")}
		c := Coverage{Key: t, SubUnits: in.Dates}
		for _, d := range in.Dates {
			path := loc[d][t]
			u.Sheets = append(u.Sheets, workbook.SheetSource{Name: d, CSVPath: path})
			if path == "" {
				c.Missing = append(c.Missing, d)
			}
		}
		units = append(units, u)
		coverage = append(coverage, c)
	}
	return units, coverage
}

func sheetsForTargets(targets []string, byTarget map[string]string) []workbook.SheetSource {
	sheets := make([]workbook.SheetSource, 0, len(targets))
	for _, t := range targets {
		sheets = append(sheets, workbook.SheetSource{Name: t, CSVPath: byTarget[t]})
	}
	return sheets
}

func coverageByDate(in Input, loc locations) []Coverage {
	var out []Coverage
	for _, d := range in.Dates {
		c := Coverage{Key: d, SubUnits: in.Targets}
		for _, t := range in.Targets {
			if loc[d][t] == "" {
				c.Missing = append(c.Missing, t)
			}
		}
		out = append(out, c)
	}
	return out
}

func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
