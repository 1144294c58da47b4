package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/logsheet/internal/config"
	"github.com/ppiankov/logsheet/internal/dates"
	"github.com/ppiankov/logsheet/internal/target"
)

// enhanceError wraps an error with context and suggestions for common setup issues.
func enhanceError(action string, err error) error {
	msg := err.Error()

	var (
		hint    string
		cfgErr  *config.Error
		dateErr *dates.ValidationError
		noMatch *target.NoMatchError
	)
	switch {
	case errors.As(err, &cfgErr) && strings.Contains(msg, "not found"):
		hint = "Create one with 'logsheet init' or point --config at an existing file"
	case errors.As(err, &cfgErr) && cfgErr.Key != "":
		hint = fmt.Sprintf("Fix %q in %s", cfgErr.Key, cfgErr.Path)
	case errors.As(err, &dateErr):
		hint = "Dates are YYYYMMDD, ranges are START~END, and neither may lie in the future"
	case errors.As(err, &noMatch):
		hint = "Check the prefix spelling or point --log-root at the export directory"
	case errors.Is(err, target.ErrNoPrefixes):
		hint = "Pass a target token such as host1,host2 or set targets in the config file"
	case strings.Contains(msg, "permission denied"):
		hint = "Insufficient permissions on the log or output directory"
	case strings.Contains(msg, "read log root"):
		hint = "The log root does not exist; set log_root in the config or use --log-root"
	}

	if hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}
