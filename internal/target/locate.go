package target

import (
	"os"
	"path/filepath"
)

// CSVName returns the file name of a folder's export for date.
func CSVName(date string) string {
	return "test_" + date + ".csv"
}

// Locate returns the path of folder's CSV for date under logRoot, or "" when
// no such regular file exists. Content is not inspected here.
func Locate(logRoot, folder, date string) string {
	path := filepath.Join(logRoot, folder, CSVName(date))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return path
}
