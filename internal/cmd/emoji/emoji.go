// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols shared by commands that print human-readable progress.
const (
	// Success marks a completed operation.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Stop marks a shutdown in progress.
	Stop = "✗"

	// Warning marks a non-fatal problem such as a skipped row.
	Warning = "!"

	// Info marks a hint or informational line.
	Info = "i"
)
