package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/logsheet/internal/config"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a sample config",
	Long:  `Creates a commented config/config.yml with the processing-time threshold and target prefixes to fill in.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(_ *cobra.Command, _ []string) error {
	configPath := config.DefaultPath

	wrote, err := writeIfNotExists(configPath, sampleConfig, initFlags.force)
	if err != nil {
		return err
	}

	if wrote {
		fmt.Printf("Created %s\n", configPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Set targets to the folder prefixes under your log root")
		fmt.Println("  2. Adjust processing_time_threshold_seconds")
		fmt.Println("  3. Run: logsheet  OR  logsheet 20240301~20240307 host1,host2")
	}
	return nil
}

func writeIfNotExists(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Skipping %s (already exists, use --force to overwrite)\n", path)
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

const sampleConfig = `# logsheet configuration

# Folder-name prefixes under log_root used when no target token is given.
targets:
  - host1
  - host2

# Rows whose processing time reaches this many seconds are highlighted.
processing_time_threshold_seconds: 60

# Key inside the alert detail JSON that marks an anomaly when true.
anomaly_key: random_key

# One folder per host, each holding test_YYYYMMDD.csv exports.
log_root: log_directory

# Workbooks are written below this directory.
output_root: output

# Report mode: date (one workbook per date), host (one per host folder),
# or date-prefix (one per date and target prefix).
mode: date

# Run log
log:
  file: log/logsheet.log
  max_size_mb: 3
  max_backups: 2
  # level: info
`
