package workbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleCSV = `Date_A,Date_B,Processing_Time,JSON
2024-01-01 00:00:00,2024-01-01 00:00:05,5s,"[{""random_key"": null}]"
2024-01-01 00:01:00,2024-01-01 00:01:03,3s,"[{""random_key"": true}]"
`

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestFile(t *testing.T) *excelize.File {
	t.Helper()
	f, err := NewFile()
	if err != nil {
		t.Fatalf("NewFile() error: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestNewFileHasOnlySentinel(t *testing.T) {
	f := newTestFile(t)
	if diff := cmp.Diff([]string{SentinelSheet}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAllMissing(t *testing.T) {
	f := newTestFile(t)
	sources := []SheetSource{{Name: "host1_prod"}, {Name: "host2_prod"}, {Name: "host3_prod"}}

	res := NewConsolidator(nil).Build(f, sources)

	if res.NoData != 3 {
		t.Errorf("NoData = %d, want 3", res.NoData)
	}
	if res.Ingested != 0 || len(res.MergeFailed) != 0 {
		t.Errorf("Ingested = %d, MergeFailed = %v, want 0 and none", res.Ingested, res.MergeFailed)
	}

	sheets := f.GetSheetList()
	if diff := cmp.Diff([]string{"host1_prod", "host2_prod", "host3_prod"}, sheets); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}
	for _, s := range sheets {
		c, err := GetTabColor(f, s)
		if err != nil {
			t.Fatal(err)
		}
		if c != TabGray {
			t.Errorf("tab color of %s = %s, want gray", s, c)
		}
		v, err := f.GetCellValue(s, "A1")
		if err != nil {
			t.Fatal(err)
		}
		if v != NoDataText {
			t.Errorf("%s!A1 = %q, want %q", s, v, NoDataText)
		}
		rows, err := f.GetRows(s)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 {
			t.Errorf("%s has %d rows, want 1", s, len(rows))
		}
	}
}

func TestBuildCopiesCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "test_19880209.csv", sampleCSV)
	f := newTestFile(t)

	res := NewConsolidator(nil).Build(f, []SheetSource{{Name: "host1_prod", CSVPath: path}})

	if res.Ingested != 1 {
		t.Errorf("Ingested = %d, want 1", res.Ingested)
	}
	rows, err := f.GetRows("host1_prod")
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if diff := cmp.Diff([]string{"Date_A", "Date_B", "Processing_Time", "JSON"}, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if rows[1][2] != "5s" {
		t.Errorf("C2 = %q, want 5s", rows[1][2])
	}
	if rows[2][3] != `[{"random_key": true}]` {
		t.Errorf("D3 = %q", rows[2][3])
	}
	if c, _ := GetTabColor(f, "host1_prod"); c != TabNone {
		t.Errorf("tab color = %s, want none", c)
	}
}

func TestBuildRecordsMergeFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", sampleCSV)
	ragged := writeCSV(t, dir, "ragged.csv", "a,b\n1,2,3\n")
	empty := writeCSV(t, dir, "empty.csv", "")
	f := newTestFile(t)

	res := NewConsolidator(nil).Build(f, []SheetSource{
		{Name: "bad_host", CSVPath: ragged},
		{Name: "good_host", CSVPath: good},
		{Name: "empty_host", CSVPath: empty},
		{Name: "gone_host", CSVPath: filepath.Join(dir, "vanished.csv")},
		{Name: "missing_host"},
	})

	if diff := cmp.Diff([]string{"bad_host", "empty_host", "gone_host"}, res.MergeFailed); diff != "" {
		t.Errorf("MergeFailed mismatch (-want +got):\n%s", diff)
	}
	if res.Ingested != 1 || res.NoData != 1 {
		t.Errorf("Ingested = %d, NoData = %d, want 1 and 1", res.Ingested, res.NoData)
	}
	if diff := cmp.Diff([]string{"good_host", "missing_host"}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTablePadsShortRowsAndStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bom.csv", "\ufeffa,b,c\n1,2\n4,5,6\n")

	got, err := readTable(path)
	if err != nil {
		t.Fatalf("readTable() error: %v", err)
	}
	want := [][]string{{"a", "b", "c"}, {"1", "2", ""}, {"4", "5", "6"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTableRejectsWideRow(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "wide.csv", "a,b\n1,2\n1,2,3\n")

	_, err := readTable(path)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("err = %v, want a line 3 field count error", err)
	}
}

func TestBuildInvalidSheetNameIsMergeFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "test.csv", sampleCSV)
	f := newTestFile(t)

	res := NewConsolidator(nil).Build(f, []SheetSource{
		{Name: "bad[name]", CSVPath: path},
		{Name: "ok", CSVPath: path},
	})

	if diff := cmp.Diff([]string{"bad[name]"}, res.MergeFailed); diff != "" {
		t.Errorf("MergeFailed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ok"}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildKeepsSentinelWhenNothingWasAdded(t *testing.T) {
	dir := t.TempDir()
	ragged := writeCSV(t, dir, "ragged.csv", "a\n1,2\n")
	core, logs := observer.New(zapcore.WarnLevel)
	f := newTestFile(t)

	res := NewConsolidator(zap.New(core)).Build(f, []SheetSource{{Name: "bad", CSVPath: ragged}})

	if len(res.MergeFailed) != 1 {
		t.Errorf("MergeFailed = %v, want [bad]", res.MergeFailed)
	}
	if diff := cmp.Diff([]string{SentinelSheet}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessageSnippet("keeping sentinel").Len() != 1 {
		t.Error("expected a warning about the kept sentinel sheet")
	}
}

func TestDeleteSentinelAlreadyAbsent(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newTestFile(t)
	if _, err := f.NewSheet("host1_prod"); err != nil {
		t.Fatal(err)
	}
	if err := f.DeleteSheet(SentinelSheet); err != nil {
		t.Fatal(err)
	}

	NewConsolidator(zap.New(core)).deleteSentinel(f)

	if logs.FilterMessage("Sentinel sheet already absent").Len() != 1 {
		t.Error("expected a warning about the absent sentinel sheet")
	}
	if diff := cmp.Diff([]string{"host1_prod"}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"1.5", 1.5},
		{"5s", "5s"},
		{"NaN", "NaN"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cellValue(tt.in); got != tt.want {
			t.Errorf("cellValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
