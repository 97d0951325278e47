package errors

import (
	"fmt"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if sge, ok := err.(*SiteGraphError); ok {
		return a.exitCodeFromSiteGraph(sge)
	}

	return 1
}

// exitCodeFromSiteGraph maps SiteGraphError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromSiteGraph(err *SiteGraphError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryOutline, CategoryLink, CategoryCycle, CategoryAnchor:
		return 3 // Content-authoring error
	case CategoryRender, CategoryFileSystem, CategoryExport:
		return 11 // Build error
	case CategoryServer:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if sge, ok := err.(*SiteGraphError); ok {
		return a.formatSiteGraph(sge)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatSiteGraph formats a SiteGraphError for display. Verbose mode includes
// the full structured context; otherwise only message plus the fields a content
// author needs to locate the problem.
func (a *CLIErrorAdapter) formatSiteGraph(err *SiteGraphError) string {
	if a.verbose {
		return fmt.Sprintf("%s context=%v", err.Error(), err.Context)
	}

	msg := err.Message
	if src, ok := err.Context["source"]; ok {
		msg = fmt.Sprintf("%s (in %v)", msg, src)
	}
	if target, ok := err.Context["target"]; ok {
		msg = fmt.Sprintf("%s [%v]", msg, target)
	}
	return fmt.Sprintf("Error: %s", msg)
}
