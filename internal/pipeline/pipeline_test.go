package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/logsheet/internal/workbook"
)

const (
	header     = "id,name,processing_time,alert_detail\n"
	slowRow    = "1,job,5s,\"[{\"\"random_key\"\": false}]\"\n"
	fastRow    = "1,job,2s,\"[{\"\"random_key\"\": false}]\"\n"
	anomalyRow = "1,job,1s,\"[{\"\"random_key\"\": true}]\"\n"
)

// logTree creates folders under a temp log root and writes the given CSVs,
// keyed by "folder/date".
func logTree(t *testing.T, folders []string, csvs map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range folders {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for key, content := range csvs {
		folder, date := filepath.Split(key)
		path := filepath.Join(root, folder, "test_"+date+".csv")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func openWorkbook(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func tabColors(t *testing.T, f *excelize.File) map[string]workbook.TabColor {
	t.Helper()
	out := make(map[string]workbook.TabColor)
	for _, s := range f.GetSheetList() {
		c, err := workbook.GetTabColor(f, s)
		if err != nil {
			t.Fatalf("GetTabColor(%s): %v", s, err)
		}
		out[s] = c
	}
	return out
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeByDate},
		{"date", ModeByDate},
		{"host", ModeByHost},
		{"date-prefix", ModeByDateAndPrefix},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Fatalf("ParseMode(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.in != "" && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
	if _, err := ParseMode("weekly"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestPlanByDateOutputNames(t *testing.T) {
	in := Input{
		Dates:      []string{"20240301", "20240302"},
		Prefixes:   []string{"host1", "host2"},
		Targets:    []string{"host1_prod", "host2_prod"},
		LogRoot:    t.TempDir(),
		OutputRoot: "out",
	}

	units, coverage := Plan(ModeByDate, in)
	if len(units) != 2 {
		t.Fatalf("units = %d, want 2", len(units))
	}
	want := filepath.Join("out", "20240301", "20240301_config.xlsx")
	if units[0].Output != want {
		t.Errorf("Output = %q, want %q", units[0].Output, want)
	}
	if len(coverage) != 2 || len(coverage[0].Missing) != 2 {
		t.Errorf("coverage = %+v, want both targets missing on each date", coverage)
	}

	in.PrefixesFromToken = true
	units, _ = Plan(ModeByDate, in)
	want = filepath.Join("out", "20240302", "20240302_host1_host2.xlsx")
	if units[1].Output != want {
		t.Errorf("Output = %q, want %q", units[1].Output, want)
	}
}

func TestPlanByDateAndPrefix(t *testing.T) {
	in := Input{
		Dates:      []string{"20240301"},
		Prefixes:   []string{"db", "web"},
		Targets:    []string{"db1", "db2", "web1"},
		LogRoot:    t.TempDir(),
		OutputRoot: "out",
	}

	units, _ := Plan(ModeByDateAndPrefix, in)
	if len(units) != 2 {
		t.Fatalf("units = %d, want 2", len(units))
	}
	var names []string
	for _, s := range units[0].Sheets {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"db1", "db2"}, names); diff != "" {
		t.Errorf("db sheets mismatch (-want +got):\n%s", diff)
	}
	want := filepath.Join("out", "20240301", "20240301_web.xlsx")
	if units[1].Output != want {
		t.Errorf("Output = %q, want %q", units[1].Output, want)
	}
}

func TestRunByDate(t *testing.T) {
	root := logTree(t, []string{"host1_prod", "host2_prod"}, map[string]string{
		"host1_prod/19880209": header + slowRow,
	})
	out := t.TempDir()

	r := NewRunner(nil, Options{Mode: ModeByDate, Threshold: 4, AnomalyKey: workbook.DefaultAnomalyKey})
	res, err := r.Run(Input{
		Dates:      []string{"19880209"},
		Prefixes:   []string{"host1", "host2"},
		Targets:    []string{"host1_prod", "host2_prod"},
		LogRoot:    root,
		OutputRoot: out,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	path := filepath.Join(out, "19880209", "19880209_config.xlsx")
	f := openWorkbook(t, path)
	if diff := cmp.Diff([]string{"host1_prod", "host2_prod"}, f.GetSheetList()); diff != "" {
		t.Errorf("sheet order mismatch (-want +got):\n%s", diff)
	}
	colors := tabColors(t, f)
	if colors["host1_prod"] != workbook.TabYellow {
		t.Errorf("host1_prod tab = %v, want yellow", colors["host1_prod"])
	}
	if colors["host2_prod"] != workbook.TabGray {
		t.Errorf("host2_prod tab = %v, want gray", colors["host2_prod"])
	}

	if len(res.Units) != 1 {
		t.Fatalf("units = %d, want 1", len(res.Units))
	}
	u := res.Units[0]
	if diff := cmp.Diff([]string{"host1_prod"}, u.ThresholdExceeded); diff != "" {
		t.Errorf("ThresholdExceeded mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"host2_prod"}, u.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if len(res.Workbooks) != 1 || res.Workbooks[0].Sheets != 2 || res.Workbooks[0].Bytes == 0 {
		t.Errorf("Workbooks = %+v", res.Workbooks)
	}
}

func TestRunSkipsAllMissingWorkbook(t *testing.T) {
	root := logTree(t, []string{"host1_prod"}, nil)
	out := t.TempDir()
	core, logs := observer.New(zap.WarnLevel)

	r := NewRunner(zap.New(core), Options{Mode: ModeByDate, Threshold: 4})
	res, err := r.Run(Input{
		Dates:      []string{"20240301"},
		Prefixes:   []string{"host1"},
		Targets:    []string{"host1_prod"},
		LogRoot:    root,
		OutputRoot: out,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(res.Workbooks) != 0 || len(res.Skipped) != 1 {
		t.Fatalf("Workbooks = %v, Skipped = %v", res.Workbooks, res.Skipped)
	}
	if _, err := os.Stat(res.Skipped[0]); !os.IsNotExist(err) {
		t.Errorf("skipped workbook should not be written, stat err = %v", err)
	}
	if len(res.Units) != 1 || !res.Units[0].AllMissing {
		t.Errorf("Units = %+v, want one all-missing unit", res.Units)
	}
	if logs.FilterMessageSnippet("skipping workbook").Len() != 1 {
		t.Error("expected a skip warning")
	}
}

func TestRunByHost(t *testing.T) {
	root := logTree(t, []string{"web1"}, map[string]string{
		"web1/20240301": header + fastRow,
		"web1/20240303": header + anomalyRow,
	})
	out := t.TempDir()

	r := NewRunner(nil, Options{Mode: ModeByHost, Threshold: 4, AnomalyKey: workbook.DefaultAnomalyKey})
	res, err := r.Run(Input{
		Dates:      []string{"20240301", "20240302", "20240303"},
		Prefixes:   []string{"web"},
		Targets:    []string{"web1"},
		LogRoot:    root,
		OutputRoot: out,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	f := openWorkbook(t, filepath.Join(out, "web1.xlsx"))
	want := []string{"20240303", "20240301", "20240302"}
	if diff := cmp.Diff(want, f.GetSheetList()); diff != "" {
		t.Errorf("sheet order mismatch (-want +got):\n%s", diff)
	}

	if len(res.Units) != 1 || res.Units[0].Key != "web1" {
		t.Fatalf("Units = %+v, want one web1 unit", res.Units)
	}
	u := res.Units[0]
	if diff := cmp.Diff([]string{"20240303"}, u.AnomalyDetected); diff != "" {
		t.Errorf("AnomalyDetected mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"20240302"}, u.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
}

func TestRunByDateAndPrefix(t *testing.T) {
	root := logTree(t, []string{"db1", "web1"}, map[string]string{
		"db1/20240301":  header + fastRow,
		"web1/20240301": header + fastRow,
	})
	out := t.TempDir()

	r := NewRunner(nil, Options{Mode: ModeByDateAndPrefix, Threshold: 4})
	res, err := r.Run(Input{
		Dates:      []string{"20240301"},
		Prefixes:   []string{"db", "web"},
		Targets:    []string{"db1", "web1"},
		LogRoot:    root,
		OutputRoot: out,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(res.Workbooks) != 2 {
		t.Fatalf("Workbooks = %+v, want 2", res.Workbooks)
	}
	for _, p := range []string{"db", "web"} {
		path := filepath.Join(out, "20240301", "20240301_"+p+".xlsx")
		f := openWorkbook(t, path)
		if f.SheetCount != 1 {
			t.Errorf("%s sheets = %d, want 1", path, f.SheetCount)
		}
	}
	if len(res.Units) != 1 || !res.Units[0].Clean() {
		t.Errorf("Units = %+v, want one clean unit", res.Units)
	}
}

func TestRunRepeatedPrefixWritesOnce(t *testing.T) {
	root := logTree(t, []string{"db1"}, map[string]string{
		"db1/20240301": header + fastRow,
	})

	tests := []struct {
		mode Mode
		file string
	}{
		{ModeByDateAndPrefix, "20240301_db.xlsx"},
		{ModeByDate, "20240301_db.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			out := t.TempDir()
			r := NewRunner(nil, Options{Mode: tt.mode, Threshold: 4})
			res, err := r.Run(Input{
				Dates:             []string{"20240301"},
				Prefixes:          []string{"db", "db"},
				PrefixesFromToken: true,
				Targets:           []string{"db1"},
				LogRoot:           root,
				OutputRoot:        out,
			})
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}

			want := []WorkbookInfo{{Key: "20240301", Path: filepath.Join(out, "20240301", tt.file), Sheets: 1}}
			if diff := cmp.Diff(want, res.Workbooks, cmpopts.IgnoreFields(WorkbookInfo{}, "Bytes")); diff != "" {
				t.Errorf("Workbooks mismatch (-want +got):\n%s", diff)
			}
			if len(res.Units) != 1 || res.Units[0].Ingested != 1 {
				t.Errorf("Units = %+v, want one unit with 1 ingested sheet", res.Units)
			}
		})
	}
}

func TestRunRejectsThreshold(t *testing.T) {
	r := NewRunner(nil, Options{Threshold: 0})
	if _, err := r.Run(Input{}); err == nil {
		t.Error("expected error for zero threshold")
	}
}
